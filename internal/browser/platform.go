// Package browser - platform.go provides ATS platform detection and platform-specific selectors.
package browser

import (
	"net/url"
	"strings"

	"github.com/jonathan/apply-pilot/internal/types"
)

// DetectBoard identifies the job board platform from a posting URL.
func DetectBoard(urlStr string) types.JobBoardType {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return types.BoardOtherATS
	}

	host := strings.ToLower(parsed.Host)
	query := parsed.RawQuery

	switch {
	case strings.Contains(host, "greenhouse.io") || strings.Contains(query, "gh_jid"):
		return types.BoardGreenhouse
	case strings.Contains(host, "lever.co"):
		return types.BoardLever
	case strings.Contains(host, "myworkdayjobs.com") || strings.Contains(host, "workday.com"):
		return types.BoardWorkday
	case strings.Contains(host, "linkedin.com"):
		return types.BoardLinkedIn
	case strings.Contains(host, "indeed.com"):
		return types.BoardIndeed
	}
	return types.BoardOtherATS
}

// ApplySelectors returns the apply-action selectors to try for a board, most
// specific first. The generic selectors are always appended as a fallback.
func ApplySelectors(board types.JobBoardType) []string {
	var selectors []string
	switch board {
	case types.BoardGreenhouse:
		selectors = []string{"#apply_button", "a.postings-btn[href*='apply']"}
	case types.BoardLever:
		selectors = []string{"a.postings-btn.template-btn-submit", "a[href*='/apply']"}
	case types.BoardWorkday:
		selectors = []string{"a[data-automation-id='adventureButton']", "button[data-automation-id='applyButton']"}
	case types.BoardLinkedIn:
		selectors = []string{"button.jobs-apply-button"}
	case types.BoardIndeed:
		selectors = []string{"#indeedApplyButton", "button#applyButtonLinkContainer"}
	}
	return append(selectors, genericApplySelectors...)
}

// genericApplySelectors cover the common apply-button markup across unknown ATS vendors.
var genericApplySelectors = []string{
	"a[href*='apply']",
	"button[id*='apply']",
	"button[class*='apply']",
	"input[type='submit'][value*='Apply']",
}

// SubmitSelectors returns the final-submission selectors for a board.
func SubmitSelectors(board types.JobBoardType) []string {
	var selectors []string
	switch board {
	case types.BoardGreenhouse:
		selectors = []string{"#submit_app", "input[type='submit'][value='Submit Application']"}
	case types.BoardLever:
		selectors = []string{"button#btn-submit", "button[data-qa='btn-submit']"}
	case types.BoardWorkday:
		selectors = []string{"button[data-automation-id='bottom-navigation-next-button']"}
	}
	return append(selectors,
		"button[type='submit']",
		"input[type='submit']",
	)
}
