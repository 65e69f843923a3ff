package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Jumpaku/go-cloudindex"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func newTestBackend(t *testing.T, opts Options, handler http.Handler) *Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	service, err := driveapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return New(service, opts)
}

func TestBackend_Name(t *testing.T) {
	b := newTestBackend(t, Options{}, http.NotFoundHandler())
	if got, want := b.Name(), "drive"; got != want {
		t.Fatalf("Name: got %q, want %q", got, want)
	}
}

func TestBackend_Stat(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/f1" {
			t.Errorf("path: got %q, want %q", r.URL.Path, "/files/f1")
		}
		if got := r.URL.Query().Get("supportsAllDrives"); got != "true" {
			t.Errorf("supportsAllDrives: got %q, want %q", got, "true")
		}
		fmt.Fprint(w, `{
			"id": "f1",
			"name": "intro.pdf",
			"mimeType": "application/pdf",
			"size": "2048",
			"webViewLink": "https://drive.google.com/file/d/f1/view",
			"owners": [{"displayName": "Alice", "emailAddress": "alice@example.com"}],
			"createdTime": "2024-03-01T10:00:00Z",
			"modifiedTime": "2024-04-02T11:30:00Z"
		}`)
	})
	b := newTestBackend(t, Options{}, handler)

	e, err := b.Stat(context.Background(), "f1")
	if err != nil {
		t.Fatalf("Stat: unexpected error: %+v", err)
	}
	want := cloudindex.Entry{
		ID:       "f1",
		Name:     "intro.pdf",
		Type:     cloudindex.EntryTypeFile,
		Link:     "https://drive.google.com/file/d/f1/view",
		Mime:     "application/pdf",
		Size:     2048,
		Owner:    "Alice",
		Created:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Modified: time.Date(2024, 4, 2, 11, 30, 0, 0, time.UTC),
	}
	if e != want {
		t.Fatalf("Stat: got %+v, want %+v", e, want)
	}
}

func TestBackend_Stat_NotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"code": 404, "message": "File not found"}}`)
	})
	b := newTestBackend(t, Options{}, handler)

	_, err := b.Stat(context.Background(), "missing")
	if !errors.Is(err, cloudindex.ErrNotFound) {
		t.Fatalf("Stat: got %+v, want ErrNotFound", err)
	}
}

func TestBackend_ListChildren(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files" {
			t.Errorf("path: got %q, want %q", r.URL.Path, "/files")
		}
		q := r.URL.Query()
		if got, want := q.Get("q"), "'root' in parents and trashed = false"; got != want {
			t.Errorf("q: got %q, want %q", got, want)
		}
		if got, want := q.Get("pageSize"), "2"; got != want {
			t.Errorf("pageSize: got %q, want %q", got, want)
		}
		if got, want := q.Get("includeItemsFromAllDrives"), "true"; got != want {
			t.Errorf("includeItemsFromAllDrives: got %q, want %q", got, want)
		}
		switch q.Get("pageToken") {
		case "":
			fmt.Fprint(w, `{
				"nextPageToken": "page2",
				"files": [
					{"id": "d1", "name": "Papers", "mimeType": "application/vnd.google-apps.folder"},
					{"id": "f1", "name": "intro.pdf", "mimeType": "application/pdf", "size": "2048"}
				]
			}`)
		case "page2":
			fmt.Fprint(w, `{
				"files": [
					{"id": "f2", "name": "notes.txt", "mimeType": "text/plain", "size": "10"}
				]
			}`)
		default:
			t.Errorf("pageToken: got %q, want empty or page2", q.Get("pageToken"))
		}
	})
	b := newTestBackend(t, Options{PageSize: 2}, handler)

	page1, err := b.ListChildren(context.Background(), "root", "")
	if err != nil {
		t.Fatalf("ListChildren: unexpected error: %+v", err)
	}
	if got, want := len(page1.Entries), 2; got != want {
		t.Fatalf("page1 entries: got %d, want %d", got, want)
	}
	if got, want := page1.NextPageToken, "page2"; got != want {
		t.Fatalf("page1 token: got %q, want %q", got, want)
	}
	if got, want := page1.Entries[0].Type, cloudindex.EntryTypeFolder; got != want {
		t.Fatalf("d1 type: got %q, want %q", got, want)
	}
	if got, want := page1.Entries[1].Size, int64(2048); got != want {
		t.Fatalf("f1 size: got %d, want %d", got, want)
	}

	page2, err := b.ListChildren(context.Background(), "root", page1.NextPageToken)
	if err != nil {
		t.Fatalf("ListChildren page2: unexpected error: %+v", err)
	}
	if got, want := len(page2.Entries), 1; got != want {
		t.Fatalf("page2 entries: got %d, want %d", got, want)
	}
	if page2.NextPageToken != "" {
		t.Fatalf("page2 token: got %q, want empty", page2.NextPageToken)
	}
}

// shareHandler serves the three calls behind ShareLink: listing the
// permissions of f1, creating or updating a grant, and reading the link.
func shareHandler(t *testing.T, existing string, granted *map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/files/f1/permissions":
			fmt.Fprintf(w, `{"permissions": [%s]}`, existing)
		case r.Method == http.MethodPost && r.URL.Path == "/files/f1/permissions":
			if err := json.NewDecoder(r.Body).Decode(granted); err != nil {
				t.Errorf("decode permission: %v", err)
			}
			(*granted)["method"] = r.Method
			fmt.Fprint(w, `{"id": "p1"}`)
		case r.Method == http.MethodPatch && r.URL.Path == "/files/f1/permissions/p1":
			if err := json.NewDecoder(r.Body).Decode(granted); err != nil {
				t.Errorf("decode permission: %v", err)
			}
			(*granted)["method"] = r.Method
			fmt.Fprint(w, `{"id": "p1"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/files/f1":
			fmt.Fprint(w, `{"webViewLink": "https://drive.google.com/file/d/f1/view"}`)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestBackend_ShareLink(t *testing.T) {
	t.Run("creates missing grant", func(t *testing.T) {
		granted := map[string]any{}
		b := newTestBackend(t, Options{}, shareHandler(t, ``, &granted))

		link, err := b.ShareLink(context.Background(), "f1")
		if err != nil {
			t.Fatalf("ShareLink: unexpected error: %+v", err)
		}
		if got, want := link, "https://drive.google.com/file/d/f1/view"; got != want {
			t.Fatalf("link: got %q, want %q", got, want)
		}
		if got, want := granted["method"], http.MethodPost; got != want {
			t.Fatalf("method: got %v, want %v", got, want)
		}
		if got, want := granted["type"], "anyone"; got != want {
			t.Fatalf("granted type: got %v, want %v", got, want)
		}
		if got, want := granted["role"], "reader"; got != want {
			t.Fatalf("granted role: got %v, want %v", got, want)
		}
	})
	t.Run("keeps matching grant", func(t *testing.T) {
		granted := map[string]any{}
		existing := `{"id": "p1", "type": "anyone", "role": "reader"}`
		b := newTestBackend(t, Options{}, shareHandler(t, existing, &granted))

		link, err := b.ShareLink(context.Background(), "f1")
		if err != nil {
			t.Fatalf("ShareLink: unexpected error: %+v", err)
		}
		if got, want := link, "https://drive.google.com/file/d/f1/view"; got != want {
			t.Fatalf("link: got %q, want %q", got, want)
		}
		if len(granted) != 0 {
			t.Fatalf("granted: got %v, want no grant written", granted)
		}
	})
	t.Run("updates mismatched role", func(t *testing.T) {
		granted := map[string]any{}
		existing := `{"id": "p1", "type": "anyone", "role": "writer"}`
		b := newTestBackend(t, Options{}, shareHandler(t, existing, &granted))

		if _, err := b.ShareLink(context.Background(), "f1"); err != nil {
			t.Fatalf("ShareLink: unexpected error: %+v", err)
		}
		if got, want := granted["method"], http.MethodPatch; got != want {
			t.Fatalf("method: got %v, want %v", got, want)
		}
		if got, want := granted["role"], "reader"; got != want {
			t.Fatalf("granted role: got %v, want %v", got, want)
		}
	})
}

func TestBackend_ShareLink_DomainPolicy(t *testing.T) {
	t.Run("creates domain grant", func(t *testing.T) {
		granted := map[string]any{}
		// An anyone grant does not satisfy a domain policy.
		existing := `{"id": "p0", "type": "anyone", "role": "reader"}`
		b := newTestBackend(t, Options{Link: LinkPolicy{Role: RoleCommenter, Domain: "example.com"}}, shareHandler(t, existing, &granted))

		if _, err := b.ShareLink(context.Background(), "f1"); err != nil {
			t.Fatalf("ShareLink: unexpected error: %+v", err)
		}
		if got, want := granted["method"], http.MethodPost; got != want {
			t.Fatalf("method: got %v, want %v", got, want)
		}
		if got, want := granted["type"], "domain"; got != want {
			t.Fatalf("granted type: got %v, want %v", got, want)
		}
		if got, want := granted["role"], "commenter"; got != want {
			t.Fatalf("granted role: got %v, want %v", got, want)
		}
		if got, want := granted["domain"], "example.com"; got != want {
			t.Fatalf("granted domain: got %v, want %v", got, want)
		}
	})
	t.Run("keeps matching domain grant", func(t *testing.T) {
		granted := map[string]any{}
		existing := `{"id": "p1", "type": "domain", "domain": "example.com", "role": "reader"}`
		b := newTestBackend(t, Options{Link: LinkPolicy{Domain: "example.com"}}, shareHandler(t, existing, &granted))

		if _, err := b.ShareLink(context.Background(), "f1"); err != nil {
			t.Fatalf("ShareLink: unexpected error: %+v", err)
		}
		if len(granted) != 0 {
			t.Fatalf("granted: got %v, want no grant written", granted)
		}
	})
}

func TestBackend_ResolveFolderPath(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		switch {
		case strings.Contains(q, "name = 'Papers'"):
			fmt.Fprint(w, `{"files": [{"id": "d1", "name": "Papers", "mimeType": "application/vnd.google-apps.folder"}]}`)
		case strings.Contains(q, "name = 'Drafts'"):
			fmt.Fprint(w, `{"files": [
				{"id": "d2", "name": "Drafts", "mimeType": "application/vnd.google-apps.folder"},
				{"id": "d3", "name": "Drafts", "mimeType": "application/vnd.google-apps.folder"}
			]}`)
		default:
			fmt.Fprint(w, `{"files": []}`)
		}
	})
	b := newTestBackend(t, Options{}, handler)

	t.Run("resolves nested path", func(t *testing.T) {
		id, err := b.ResolveFolderPath(context.Background(), "root", "/Papers")
		if err != nil {
			t.Fatalf("ResolveFolderPath: unexpected error: %+v", err)
		}
		if got, want := id, cloudindex.FileID("d1"); got != want {
			t.Fatalf("id: got %q, want %q", got, want)
		}
	})
	t.Run("empty path is the root", func(t *testing.T) {
		id, err := b.ResolveFolderPath(context.Background(), "root", "/")
		if err != nil {
			t.Fatalf("ResolveFolderPath: unexpected error: %+v", err)
		}
		if got, want := id, cloudindex.FileID("root"); got != want {
			t.Fatalf("id: got %q, want %q", got, want)
		}
	})
	t.Run("missing folder", func(t *testing.T) {
		_, err := b.ResolveFolderPath(context.Background(), "root", "/Nowhere")
		if !errors.Is(err, cloudindex.ErrNotFound) {
			t.Fatalf("ResolveFolderPath: got %+v, want ErrNotFound", err)
		}
	})
	t.Run("ambiguous folder", func(t *testing.T) {
		_, err := b.ResolveFolderPath(context.Background(), "root", "/Drafts")
		if !errors.Is(err, cloudindex.ErrAmbiguousPath) {
			t.Fatalf("ResolveFolderPath: got %+v, want ErrAmbiguousPath", err)
		}
	})
	t.Run("relative components rejected", func(t *testing.T) {
		_, err := b.ResolveFolderPath(context.Background(), "root", "/Papers/../etc")
		if !errors.Is(err, cloudindex.ErrInvalidPath) {
			t.Fatalf("ResolveFolderPath: got %+v, want ErrInvalidPath", err)
		}
	})
}

func TestNewEntry(t *testing.T) {
	t.Run("folder drops size", func(t *testing.T) {
		e := newEntry(&driveapi.File{
			Id:       "d1",
			Name:     "Papers",
			MimeType: mimeTypeFolder,
			Size:     4096,
		})
		if got, want := e.Type, cloudindex.EntryTypeFolder; got != want {
			t.Fatalf("Type: got %q, want %q", got, want)
		}
		if got, want := e.Size, int64(0); got != want {
			t.Fatalf("Size: got %d, want %d", got, want)
		}
	})
	t.Run("owner falls back to email", func(t *testing.T) {
		e := newEntry(&driveapi.File{
			Id:     "f1",
			Owners: []*driveapi.User{{EmailAddress: "alice@example.com"}},
		})
		if got, want := e.Owner, "alice@example.com"; got != want {
			t.Fatalf("Owner: got %q, want %q", got, want)
		}
	})
}

func TestMapError(t *testing.T) {
	testcases := []struct {
		name string
		err  error
		want error
	}{
		{name: "unauthorized", err: &googleapi.Error{Code: 401}, want: cloudindex.ErrAuth},
		{name: "too many requests", err: &googleapi.Error{Code: 429}, want: cloudindex.ErrRateLimited},
		{
			name: "rate limited 403",
			err:  &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}}},
			want: cloudindex.ErrRateLimited,
		},
		{name: "forbidden", err: &googleapi.Error{Code: 403}, want: cloudindex.ErrNotFound},
		{name: "missing", err: &googleapi.Error{Code: 404}, want: cloudindex.ErrNotFound},
		{name: "server error", err: &googleapi.Error{Code: 500}, want: cloudindex.ErrAPIError},
		{name: "plain error", err: fmt.Errorf("connection reset"), want: cloudindex.ErrAPIError},
	}
	for _, testcase := range testcases {
		t.Run(testcase.name, func(t *testing.T) {
			got := mapError("call failed", testcase.err)
			if !errors.Is(got, testcase.want) {
				t.Fatalf("mapError: got %+v, want %v", got, testcase.want)
			}
			if !errors.Is(got, testcase.err) {
				t.Fatalf("mapError: lost the cause %v", testcase.err)
			}
		})
	}
}

func TestEscapeQuery(t *testing.T) {
	testcases := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "it's", want: `it\'s`},
		{in: `back\slash`, want: `back\\slash`},
		{in: `both\'`, want: `both\\\'`},
	}
	for _, testcase := range testcases {
		if got := escapeQuery(testcase.in); got != testcase.want {
			t.Fatalf("escapeQuery(%q): got %q, want %q", testcase.in, got, testcase.want)
		}
	}
}

func TestScope(t *testing.T) {
	if got, want := Scope(true), driveapi.DriveScope; got != want {
		t.Fatalf("Scope(true): got %q, want %q", got, want)
	}
	if got, want := Scope(false), driveapi.DriveMetadataReadonlyScope; got != want {
		t.Fatalf("Scope(false): got %q, want %q", got, want)
	}
}

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{in: "reader", want: RoleReader, ok: true},
		{in: "Writer", want: RoleWriter, ok: true},
		{in: "FILEORGANIZER", want: RoleFileOrganizer, ok: true},
		{in: "editor", ok: false},
		{in: "", ok: false},
	}
	for _, c := range cases {
		c := c
		t.Run(c.in, func(t *testing.T) {
			got, err := ParseRole(c.in)
			if !c.ok {
				if !errors.Is(err, cloudindex.ErrInvalidConfig) {
					t.Fatalf("ParseRole(%q): got error %v, want ErrInvalidConfig", c.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRole(%q): %v", c.in, err)
			}
			if got != c.want {
				t.Fatalf("ParseRole(%q): got %q, want %q", c.in, got, c.want)
			}
		})
	}
}
