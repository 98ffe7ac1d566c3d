package model

// Post is a record returned by the external posts API.
type Post struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// ETLResult holds the records written for one external post.
type ETLResult struct {
	PostID int64          `json:"postId"`
	Gpdb1  *AnalyticsData `json:"gpdb1"`
	Gpdb2  *AnalyticsData `json:"gpdb2"`
}
