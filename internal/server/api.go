package server

// Error ...
// swagger:model
type Error struct {
	Error string `json:"error"`
}

// Message ...
type Message struct {
	Message string `json:"message"`
}

// User is the current account context exposed to views.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	MemberSince uint64 `json:"memberSince"`
}

// Post ...
type Post struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Author    string `json:"author"`
	Likes     uint32 `json:"likes"`
	CreatedAt uint64 `json:"createdAt"`
}

// Comment ...
type Comment struct {
	ID        int64  `json:"id"`
	PostID    int64  `json:"postId"`
	Body      string `json:"body"`
	Author    string `json:"author"`
	CreatedAt uint64 `json:"createdAt"`
}

// PostWithComments ...
type PostWithComments struct {
	Post
	Comments []Comment `json:"comments"`
}

// HomeResponse ...
// swagger:model
type HomeResponse struct {
	Posts []PostWithComments `json:"posts"`
	User  *User              `json:"user,omitempty"`
}

// ProfileResponse ...
// swagger:model
type ProfileResponse struct {
	User  User   `json:"user"`
	Posts []Post `json:"posts"`
}

// SearchResponse ...
// swagger:model
type SearchResponse struct {
	Posts []Post `json:"posts"`
}

// LikeResponse ...
// swagger:model
type LikeResponse struct {
	Post Post `json:"post"`
}

// PageResponse is rendered by the form pages, carrying an optional error
// message from the previous attempt.
type PageResponse struct {
	Error string `json:"error,omitempty"`
}
