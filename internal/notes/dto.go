package notes

import (
	"fmt"
	"time"
)

// ImageView is the per-image payload returned to clients. AnalysisResult is
// null unless the image reached DONE.
type ImageView struct {
	ImageID        string  `json:"imageId"`
	ImageURL       string  `json:"imageUrl"`
	AnalysisResult *string `json:"analysisResult"`
	Status         string  `json:"status"`
}

// NoteView is the full note payload including image analysis state.
type NoteView struct {
	NoteID    string      `json:"noteId"`
	Title     string      `json:"title"`
	Content   string      `json:"content,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	Images    []ImageView `json:"images"`
}

// NoteSummary is the list-view payload.
type NoteSummary struct {
	NoteID    string    `json:"noteId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

func toNoteView(note Note, imgs []NoteImage) NoteView {
	views := make([]ImageView, 0, len(imgs))
	for _, img := range imgs {
		views = append(views, ImageView{
			ImageID:        img.ID,
			ImageURL:       fmt.Sprintf("/api/v1/notes/%s/images/%s", note.ID, img.ID),
			AnalysisResult: img.RecognizedText,
			Status:         img.Status,
		})
	}
	return NoteView{
		NoteID:    note.ID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
		Images:    views,
	}
}

func toNoteSummaries(list []Note) []NoteSummary {
	out := make([]NoteSummary, 0, len(list))
	for _, note := range list {
		out = append(out, NoteSummary{
			NoteID:    note.ID,
			Title:     note.Title,
			CreatedAt: note.CreatedAt,
		})
	}
	return out
}
