package taxonomy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Content is everything loaded from the two static text resources.
type Content struct {
	Taxonomy  *Taxonomy
	Questions QuestionBank
}

// ReadStrategies fetches and parses a strategy file from a path or http(s) URL.
func ReadStrategies(ctx context.Context, location string) (*Taxonomy, error) {
	data, err := fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	tax, err := ParseStrategies(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return tax, nil
}

// ReadQuestions fetches and parses a guiding-questions file.
func ReadQuestions(ctx context.Context, location string) (QuestionBank, error) {
	data, err := fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	bank, err := ParseQuestions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return bank, nil
}

// Load fetches both resources concurrently. A failed resource is reported
// to logw (stderr when nil) and replaced with its empty value; Load itself
// never fails.
func Load(ctx context.Context, strategiesLocation, questionsLocation string, logw io.Writer) Content {
	if logw == nil {
		logw = os.Stderr
	}
	content := Content{Taxonomy: Empty(), Questions: QuestionBank{}}

	var g errgroup.Group
	var strategiesErr, questionsErr error
	g.Go(func() error {
		tax, err := ReadStrategies(ctx, strategiesLocation)
		if err != nil {
			strategiesErr = err
			return nil
		}
		content.Taxonomy = tax
		return nil
	})
	g.Go(func() error {
		bank, err := ReadQuestions(ctx, questionsLocation)
		if err != nil {
			questionsErr = err
			return nil
		}
		content.Questions = bank
		return nil
	})
	_ = g.Wait()

	if strategiesErr != nil {
		fmt.Fprintf(logw, "load strategies: %v\n", strategiesErr)
	}
	if questionsErr != nil {
		fmt.Fprintf(logw, "load guiding questions: %v\n", questionsErr)
	}
	return content
}

func fetch(ctx context.Context, location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("content location is required")
	}
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", location, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", location, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", location, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}
