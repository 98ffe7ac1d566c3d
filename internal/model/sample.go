// Package model defines domain models and data structures.
package model

import (
	"strings"
	"time"
)

// Sample represents a sample entity.
//
// ID and the timestamps are assigned by storage; a Sample built with
// NewSample carries none of them until it has been saved.
type Sample struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSample creates an unsaved sample after validating its title.
func NewSample(title, content string) (*Sample, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}

	return &Sample{
		Title:   title,
		Content: content,
	}, nil
}

// Update replaces title and content. The sample is left untouched when the
// new title is blank.
func (s *Sample) Update(title, content string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}

	s.Title = title
	s.Content = content

	return nil
}

// Clone returns a copy of the sample.
func (s *Sample) Clone() *Sample {
	if s == nil {
		return nil
	}

	c := *s

	return &c
}

// IsNew reports whether the sample has not been persisted yet.
func (s *Sample) IsNew() bool {
	return s.ID == 0
}

// ValidateTitle rejects blank titles.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrInvalidTitle
	}

	return nil
}
