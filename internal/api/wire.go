package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// flexID decodes identifiers sent either as JSON numbers or strings
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*f = flexID(n.String())
	return nil
}

// wireIssue is the catalog's JSON issue record. Effort arrives either as
// estimatedMinutes or estimatedHours depending on the producer.
type wireIssue struct {
	ID               flexID   `json:"id"`
	GitHubID         flexID   `json:"githubId"`
	ProjectOwner     string   `json:"projectOwner"`
	ProjectName      string   `json:"projectName"`
	Title            string   `json:"title"`
	HTMLURL          string   `json:"htmlUrl"`
	Difficulty       string   `json:"difficulty"`
	EstimatedMinutes *float64 `json:"estimatedMinutes,omitempty"`
	EstimatedHours   *float64 `json:"estimatedHours,omitempty"`
	Labels           []string `json:"labels"`
	Language         string   `json:"language,omitempty"`
	State            string   `json:"state,omitempty"`
	CreatedAt        string   `json:"createdAt"`
	FetchedAt        string   `json:"fetchedAt,omitempty"`
}

type wirePage struct {
	Content       []wireIssue `json:"content"`
	TotalElements int         `json:"totalElements"`
	TotalPages    int         `json:"totalPages"`
	Number        int         `json:"number"`
	Size          int         `json:"size"`
	First         bool        `json:"first"`
	Last          bool        `json:"last"`
}

type wireStats struct {
	TotalIssues            int            `json:"totalIssues"`
	LastUpdated            string         `json:"lastUpdated"`
	LanguageDistribution   map[string]int `json:"languageDistribution,omitempty"`
	DifficultyDistribution map[string]int `json:"difficultyDistribution,omitempty"`
}

// timeLayouts covers RFC 3339 and the zone-less form some backends emit
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// parseTimestamp returns the zero time for empty or unparseable input
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (w wireIssue) toIssue() Issue {
	difficulty, _ := ParseDifficulty(w.Difficulty)

	var minutes float64
	switch {
	case w.EstimatedMinutes != nil:
		minutes = UnitMinutes.ToMinutes(*w.EstimatedMinutes)
	case w.EstimatedHours != nil:
		minutes = UnitHours.ToMinutes(*w.EstimatedHours)
	}

	labels := make([]string, len(w.Labels))
	copy(labels, w.Labels)

	return Issue{
		ID:               string(w.ID),
		GitHubID:         string(w.GitHubID),
		Repository:       Repository{Owner: w.ProjectOwner, Name: w.ProjectName},
		Title:            w.Title,
		Difficulty:       difficulty,
		EstimatedMinutes: minutes,
		Labels:           labels,
		Language:         w.Language,
		State:            w.State,
		CreatedAt:        parseTimestamp(w.CreatedAt),
		FetchedAt:        parseTimestamp(w.FetchedAt),
		URL:              w.HTMLURL,
	}
}

func (w wirePage) toPage() *Page {
	issues := make([]Issue, 0, len(w.Content))
	for _, wi := range w.Content {
		issues = append(issues, wi.toIssue())
	}
	return &Page{
		Issues: issues,
		Info: PageInfo{
			TotalElements: w.TotalElements,
			TotalPages:    w.TotalPages,
			Number:        w.Number,
			Size:          w.Size,
			First:         w.First,
			Last:          w.Last,
		},
	}
}

func (w wireStats) toStats() *Stats {
	return &Stats{
		TotalIssues:            w.TotalIssues,
		LastUpdated:            parseTimestamp(w.LastUpdated),
		LanguageDistribution:   w.LanguageDistribution,
		DifficultyDistribution: w.DifficultyDistribution,
	}
}

// DecodeIssues parses either a JSON array of issue records or a page
// response object and returns the issues in document order.
func DecodeIssues(data []byte) ([]Issue, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	if data[0] == '{' {
		var page wirePage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("failed to parse page response: %w", err)
		}
		return page.toPage().Issues, nil
	}

	var records []wireIssue
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse issue array: %w", err)
	}
	issues := make([]Issue, 0, len(records))
	for _, r := range records {
		issues = append(issues, r.toIssue())
	}
	return issues, nil
}

// IssueRecord is the JSON shape written by the CLI. Effort is reported in
// both units so consumers of either surface can read it.
type IssueRecord struct {
	ID               string   `json:"id"`
	GitHubID         string   `json:"githubId,omitempty"`
	ProjectOwner     string   `json:"projectOwner"`
	ProjectName      string   `json:"projectName"`
	Title            string   `json:"title"`
	HTMLURL          string   `json:"htmlUrl"`
	Difficulty       string   `json:"difficulty"`
	EstimatedMinutes float64  `json:"estimatedMinutes"`
	EstimatedHours   float64  `json:"estimatedHours"`
	Labels           []string `json:"labels"`
	Language         string   `json:"language,omitempty"`
	State            string   `json:"state,omitempty"`
	CreatedAt        string   `json:"createdAt,omitempty"`
}

// NewIssueRecord converts an Issue to its output record
func NewIssueRecord(issue Issue) IssueRecord {
	labels := issue.Labels
	if labels == nil {
		labels = []string{}
	}
	rec := IssueRecord{
		ID:               issue.ID,
		GitHubID:         issue.GitHubID,
		ProjectOwner:     issue.Repository.Owner,
		ProjectName:      issue.Repository.Name,
		Title:            issue.Title,
		HTMLURL:          issue.URL,
		Difficulty:       issue.Difficulty.String(),
		EstimatedMinutes: UnitMinutes.FromMinutes(issue.EstimatedMinutes),
		EstimatedHours:   UnitHours.FromMinutes(issue.EstimatedMinutes),
		Labels:           labels,
		Language:         issue.Language,
		State:            issue.State,
	}
	if !issue.CreatedAt.IsZero() {
		rec.CreatedAt = issue.CreatedAt.UTC().Format(time.RFC3339)
	}
	return rec
}
