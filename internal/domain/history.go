package domain

import (
	"time"

	"github.com/pocean23/argopy/internal/dataset"
)

// History entries appended by the transformations.
const (
	HistoryFilterDataMode = "Variables filtered according to DATA_MODE"
	HistoryPointToProfile = "Transformed with point2profile"
	HistoryProfileToPoint = "Transformed with profile2point"
)

// addHistory stamps text with the current UTC time and appends it to the
// dataset history.
func addHistory(ds *dataset.Dataset, text string) {
	ds.AppendHistory(clock.Now().UTC().Format(time.RFC3339) + " " + text)
}

// modeOf returns the dataset's mode tag, falling back to its dimensions when
// the tag was never set.
func modeOf(ds *dataset.Dataset) dataset.Mode {
	if m := ds.Mode(); m != dataset.Unknown {
		return m
	}
	return ds.InferMode()
}
