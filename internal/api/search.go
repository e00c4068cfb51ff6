package api

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	graphql "github.com/cli/shurcooL-graphql"
)

// DefaultSearchQuery finds open newcomer issues across GitHub
const DefaultSearchQuery = `label:"good first issue" state:open is:issue`

// searchPageSize is the GitHub maximum for a single search connection page
const searchPageSize = 100

// SearchOptions configures SearchIssues
type SearchOptions struct {
	Query string // GitHub search syntax; DefaultSearchQuery when empty
	Limit int    // maximum number of issues; searchPageSize when <= 0
	Rules LabelRules
}

// searchIssueNode mirrors the fields requested for each search hit
type searchIssueNode struct {
	Issue struct {
		ID         string
		DatabaseID int64 `graphql:"databaseId"`
		Number     int
		Title      string
		URL        string `graphql:"url"`
		State      string
		CreatedAt  time.Time
		Labels     struct {
			Nodes []struct {
				Name string
			}
		} `graphql:"labels(first: 20)"`
		Repository struct {
			Name  string
			Owner struct {
				Login string
			}
			PrimaryLanguage *struct {
				Name string
			}
		}
	} `graphql:"... on Issue"`
}

// SearchIssues runs a GitHub issue search and converts the hits to catalog
// issues. Difficulty and effort come from opts.Rules. Results keep GitHub's
// order, which is the natural order for local evaluation.
func (c *Client) SearchIssues(opts SearchOptions) ([]Issue, error) {
	if c.gql == nil {
		return nil, fmt.Errorf("GraphQL client not initialized - are you authenticated with gh?")
	}

	query := strings.TrimSpace(opts.Query)
	if query == "" {
		query = DefaultSearchQuery
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = searchPageSize
	}

	var issues []Issue
	var cursor *graphql.String
	fetchedAt := time.Now().UTC()

	for len(issues) < limit {
		first, err := safeGraphQLInt(min(searchPageSize, limit-len(issues)))
		if err != nil {
			return nil, err
		}

		var q struct {
			Search struct {
				PageInfo struct {
					HasNextPage bool
					EndCursor   string
				}
				Nodes []searchIssueNode
			} `graphql:"search(query: $query, type: ISSUE, first: $first, after: $after)"`
		}
		variables := map[string]interface{}{
			"query": graphql.String(query),
			"first": first,
			"after": cursor,
		}

		if err := c.gql.Query("SearchIssues", &q, variables); err != nil {
			return nil, WrapError("search", "issues", err)
		}

		for _, node := range q.Search.Nodes {
			if node.Issue.ID == "" {
				// Non-issue hit (pull request)
				continue
			}
			issues = append(issues, node.toIssue(opts.Rules, fetchedAt))
		}

		if !q.Search.PageInfo.HasNextPage || len(q.Search.Nodes) == 0 {
			break
		}
		next := graphql.String(q.Search.PageInfo.EndCursor)
		cursor = &next
	}

	if len(issues) > limit {
		issues = issues[:limit]
	}
	return issues, nil
}

func (n searchIssueNode) toIssue(rules LabelRules, fetchedAt time.Time) Issue {
	labels := make([]string, 0, len(n.Issue.Labels.Nodes))
	for _, l := range n.Issue.Labels.Nodes {
		labels = append(labels, l.Name)
	}
	difficulty, minutes := rules.Classify(labels)

	language := ""
	if n.Issue.Repository.PrimaryLanguage != nil {
		language = n.Issue.Repository.PrimaryLanguage.Name
	}

	return Issue{
		ID:               n.Issue.ID,
		GitHubID:         strconv.FormatInt(n.Issue.DatabaseID, 10),
		Repository:       Repository{Owner: n.Issue.Repository.Owner.Login, Name: n.Issue.Repository.Name},
		Title:            n.Issue.Title,
		Difficulty:       difficulty,
		EstimatedMinutes: minutes,
		Labels:           labels,
		Language:         language,
		State:            strings.ToLower(n.Issue.State),
		CreatedAt:        n.Issue.CreatedAt,
		FetchedAt:        fetchedAt,
		URL:              n.Issue.URL,
	}
}

// safeGraphQLInt converts an int to graphql.Int, rejecting values outside int32
func safeGraphQLInt(v int) (graphql.Int, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("value %d overflows GraphQL Int", v)
	}
	return graphql.Int(v), nil
}
