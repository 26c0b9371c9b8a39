package jira

import "strings"

// IssueResponse is the body of a JQL search.
type IssueResponse struct {
	Issues     []Issue `json:"issues"`
	Total      int     `json:"total"`
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
}

// Issue is a single search hit with the requested fields.
type Issue struct {
	Key    string `json:"key"`
	Fields Fields `json:"fields"`
}

// BrowseURL returns the web page of the issue on the site at baseURL.
func (i Issue) BrowseURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + "/browse/" + i.Key
}

// Fields are the issue fields requested by SearchJQL.
type Fields struct {
	Summary   string     `json:"summary"`
	Status    Status     `json:"status"`
	Priority  *Priority  `json:"priority,omitempty"`
	Assignee  *User      `json:"assignee,omitempty"`
	Project   *Project   `json:"project,omitempty"`
	IssueType *IssueType `json:"issuetype,omitempty"`
}

type Status struct {
	Name           string          `json:"name"`
	IconURL        string          `json:"iconUrl,omitempty"`
	StatusCategory *StatusCategory `json:"statusCategory,omitempty"`
}

// CategoryKey returns the status category key ("new", "indeterminate",
// "done"), or "" when the category is absent.
func (s Status) CategoryKey() string {
	if s.StatusCategory == nil {
		return ""
	}
	return s.StatusCategory.Key
}

type StatusCategory struct {
	Name      string `json:"name"`
	Key       string `json:"key"`
	ColorName string `json:"colorName"`
}

type Priority struct {
	Name    string `json:"name"`
	IconURL string `json:"iconUrl,omitempty"`
}

type IssueType struct {
	Name    string `json:"name"`
	IconURL string `json:"iconUrl,omitempty"`
}

type Project struct {
	Key        string      `json:"key"`
	AvatarURLs *AvatarURLs `json:"avatarUrls,omitempty"`
}

// User is an issue participant as embedded in issue fields.
type User struct {
	AccountID   string      `json:"accountId,omitempty"`
	DisplayName string      `json:"displayName"`
	AvatarURLs  *AvatarURLs `json:"avatarUrls,omitempty"`
}

type AvatarURLs struct {
	Size16 string `json:"16x16,omitempty"`
	Size24 string `json:"24x24,omitempty"`
	Size32 string `json:"32x32,omitempty"`
	Size48 string `json:"48x48,omitempty"`
}
