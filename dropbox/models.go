package dropbox

import "time"

const (
	tagFile   = "file"
	tagFolder = "folder"
)

// metadata is a file or folder entry as returned by /files/list_folder and
// /files/get_metadata.
type metadata struct {
	Tag            string    `json:".tag"`
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	PathLower      string    `json:"path_lower"`
	PathDisplay    string    `json:"path_display"`
	ClientModified time.Time `json:"client_modified"`
	ServerModified time.Time `json:"server_modified"`
	Size           int64     `json:"size"`
}

type listFolderRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
	Limit     uint32 `json:"limit,omitempty"`
}

type listFolderContinueRequest struct {
	Cursor string `json:"cursor"`
}

type listFolderResponse struct {
	Entries []metadata `json:"entries"`
	Cursor  string     `json:"cursor"`
	HasMore bool       `json:"has_more"`
}

type getMetadataRequest struct {
	Path string `json:"path"`
}

type createSharedLinkRequest struct {
	Path string `json:"path"`
}

type sharedLinkMetadata struct {
	URL string `json:"url"`
}

type listSharedLinksRequest struct {
	Path       string `json:"path"`
	DirectOnly bool   `json:"direct_only"`
}

type listSharedLinksResponse struct {
	Links []sharedLinkMetadata `json:"links"`
}

// Account is the response from /users/get_current_account.
type Account struct {
	AccountID string `json:"account_id"`
	Name      struct {
		DisplayName string `json:"display_name"`
	} `json:"name"`
	Email string `json:"email"`
}

type apiErrorBody struct {
	ErrorSummary string `json:"error_summary"`
}
