package textbulker

// Post is the content item served by the content API.
type Post struct {
	Slug      string
	Title     string
	Date      string // YYYY-MM-DD
	Content   string // markdown source
	Published bool
	Meta      map[string]string
}

// Status returns the REST status name of the post.
func (p Post) Status() string {
	if p.Published {
		return statusPublish
	}
	return statusDraft
}

const (
	statusPublish = "publish"
	statusDraft   = "draft"
)

// postResponse is the REST representation of a Post.
type postResponse struct {
	Slug    string            `json:"slug"`
	Date    string            `json:"date"`
	Status  string            `json:"status"`
	Link    string            `json:"link"`
	Title   rendered          `json:"title"`
	Content rendered          `json:"content"`
	Meta    map[string]string `json:"meta"`
}

type rendered struct {
	Raw      string `json:"raw,omitempty"`
	Rendered string `json:"rendered"`
}

// postRequest is the body accepted when creating or updating a post.
// Nil fields are left unchanged on update.
type postRequest struct {
	Slug    *string           `json:"slug"`
	Title   *string           `json:"title"`
	Date    *string           `json:"date"`
	Status  *string           `json:"status"`
	Content *string           `json:"content"`
	Meta    map[string]string `json:"meta"`
}

// deleteResponse is the body returned after a post is deleted.
type deleteResponse struct {
	Deleted  bool         `json:"deleted"`
	Previous postResponse `json:"previous"`
}
