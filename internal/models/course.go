package models

import "time"

// Asset is an object stored in the media storage
type Asset struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	Location    string `json:"location"`
	ContentType string `json:"contentType,omitempty"`
}

// Course represents a course listed on the marketplace
type Course struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	Image        *Asset    `json:"image,omitempty"`
	Category     string    `json:"category"`
	Published    bool      `json:"published"`
	Paid         bool      `json:"paid"`
	InstructorID int       `json:"-"`
	Instructor   UserRef   `json:"instructor"`
	Lessons      []Lesson  `json:"lessons"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Lesson is one ordered entry of a course
type Lesson struct {
	ID          int       `json:"id"`
	CourseID    int       `json:"courseId"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Content     string    `json:"content"`
	Video       *Asset    `json:"video,omitempty"`
	FreePreview bool      `json:"freePreview"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateCourseRequest represents the request body for course creation
type CreateCourseRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Paid        bool    `json:"paid"`
	Image       *Asset  `json:"image"`
}

// UpdateCourseRequest represents a partial course update; nil fields are left unchanged
type UpdateCourseRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	Paid        *bool    `json:"paid"`
	Image       *Asset   `json:"image"`
}

// AddLessonRequest represents the request body for appending a lesson
type AddLessonRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Video   *Asset `json:"video"`
}

// UpdateLessonRequest represents the request body for editing a lesson
type UpdateLessonRequest struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Video       *Asset `json:"video"`
	FreePreview bool   `json:"freePreview"`
}
