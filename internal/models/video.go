package models

import (
	"time"
)

// Video status values
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusNoCaptions = "no_captions"
)

type Video struct {
	ID           int64      `json:"id"`
	VideoID      string     `json:"video_id"` // YouTube's 11-char identifier, unique
	URL          string     `json:"url"`
	Title        *string    `json:"title"`
	ChannelName  *string    `json:"channel_name"`
	ChannelID    *string    `json:"channel_id"`
	Description  *string    `json:"description"`
	PublishedAt  *time.Time `json:"published_at"`
	Duration     *int       `json:"duration_seconds"`
	Language     *string    `json:"language"`
	ViewCount    *int64     `json:"view_count"`
	LikeCount    *int64     `json:"like_count"`
	CommentCount *int64     `json:"comment_count"`
	Status       string     `json:"status"`
	HasCaptions  bool       `json:"has_captions"`
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Transcript struct {
	ID              int64     `json:"id"`
	VideoPK         int64     `json:"video_id"`
	Language        *string   `json:"language"`
	IsAutoGenerated bool      `json:"is_auto_generated"`
	RawText         string    `json:"-"`
	WordCount       int       `json:"word_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// VideoMetadata is what the metadata fetch stage produces, regardless of
// which backend (Data API or watch page) supplied it.
type VideoMetadata struct {
	VideoID      string
	Title        string
	ChannelID    string
	ChannelName  string
	Description  string
	PublishedAt  *time.Time
	Duration     int // seconds
	Language     string
	ViewCount    *int64
	LikeCount    *int64
	CommentCount *int64
}

// VideoUpdate carries partial field updates for a video record. Nil means
// "leave unchanged".
type VideoUpdate struct {
	Status       *string
	HasCaptions  *bool
	ErrorMessage *string
}

type VideoFilter struct {
	Status      *string
	HasCaptions *bool
}

type Stats struct {
	TotalVideos  int `json:"total_videos"`
	Completed    int `json:"completed"`
	Processing   int `json:"processing"`
	Failed       int `json:"failed"`
	NoCaptions   int `json:"no_captions"`
	WithCaptions int `json:"with_captions"`
	WithCoding   int `json:"with_ai_coding"`
}
