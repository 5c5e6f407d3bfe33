package model

// Post is the wire shape of a stored post.
type Post struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Author    string  `json:"author"`
	CreatedAt *string `json:"createdAt"` // ISO-8601, null when unset
}

// PostFields is the validated payload of a create or update.
type PostFields struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// Map returns the fields in the shape handed to the document store.
func (f PostFields) Map() map[string]any {
	return map[string]any{
		"title":   f.Title,
		"content": f.Content,
		"author":  f.Author,
	}
}

type PostsResponse struct {
	Posts []Post `json:"posts"`
}

type PostResponse struct {
	Post Post `json:"post"`
}

type CreatePostResponse struct {
	ID string `json:"id"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
