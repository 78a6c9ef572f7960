// Package store holds the query layer. Every function takes the *gorm.DB it
// should run against plus explicit foreign keys and returns plain values, so
// handlers never walk model associations themselves.
package store

import "gorm.io/gorm"

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

type PageRequest struct {
	Page    int
	PerPage int
}

type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

func (p PageRequest) normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}

func (p PageRequest) scope(db *gorm.DB) *gorm.DB {
	return db.Offset((p.Page - 1) * p.PerPage).Limit(p.PerPage)
}

func (p PageRequest) meta(total int64) PageMeta {
	return PageMeta{Page: p.Page, PerPage: p.PerPage, Total: total}
}
