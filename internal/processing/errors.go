package processing

import (
	"errors"
	"fmt"

	"github.com/spacesedan/reviewflow/internal/clients"
)

var (
	// ErrEmptyResult means there was nothing to work with: the search
	// returned no posts, or no posts are stored for the key being analyzed.
	ErrEmptyResult = errors.New("empty result")
	ErrEmptyQuery  = errors.New("query is empty")
)

const (
	STAGE_SEARCH   = "search"
	STAGE_ANALYSIS = "analysis"
	STAGE_STORE    = "store"
)

// StageError records which step of the pipeline failed so the UI can word
// the message. The underlying kind stays reachable through errors.Is.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// UserMessage turns a pipeline error into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	stage := ""
	var se *StageError
	if errors.As(err, &se) {
		stage = se.Stage
	}

	switch {
	case errors.Is(err, ErrEmptyQuery):
		return "Enter a product name first."
	case errors.Is(err, clients.ErrMissingCredential):
		if stage == STAGE_ANALYSIS {
			return "An OpenAI API key is required to analyze reviews."
		}
		return "Naver API credentials (client ID and secret) are required to search."
	case errors.Is(err, ErrEmptyResult):
		if stage == STAGE_ANALYSIS {
			return "No blog posts are stored for this product. Run a search first."
		}
		return "No blog posts were found for this product."
	case errors.Is(err, clients.ErrTransport):
		if stage == STAGE_ANALYSIS {
			return "The OpenAI request failed. Nothing was saved; try again."
		}
		return "The Naver search request failed. Try again."
	case errors.Is(err, clients.ErrDecode):
		if stage == STAGE_ANALYSIS {
			return "The analysis reply was incomplete or malformed. Nothing was saved."
		}
		return "The Naver search response could not be read."
	case stage == STAGE_STORE:
		return "The local database could not be read or updated."
	}
	return "Something went wrong: " + err.Error()
}
