// Package services provides application-level orchestration services
package services

import (
	"strings"
)

// Score weights. Each rule contributes independently; summation order never
// matters and the total is clamped to [0, 100].
const (
	scoreCorporateDomain   = 20
	scoreCLevelTitle       = 25
	scoreSeniorTitle       = 15
	scoreManagerTitle      = 10
	scoreCompanySizeLarge  = 15
	scoreCompanySizeMedium = 10
	scoreCompanySizeSmall  = 5
	scoreTargetIndustry    = 20
	scoreRepeatDownloader  = 10
	scoreCompleteProfile   = 10

	scoreMax = 100
)

// freeMailDomains are consumer email providers that earn no corporate bonus.
var freeMailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"live.com":       true,
	"aol.com":        true,
	"icloud.com":     true,
	"me.com":         true,
	"gmx.de":         true,
	"gmx.net":        true,
	"web.de":         true,
	"t-online.de":    true,
	"proton.me":      true,
	"protonmail.com": true,
}

var cLevelKeywords = []string{
	"ceo", "cto", "cfo", "coo", "cio", "cmo", "chief", "founder", "owner", "president", "geschäftsführer",
}

var seniorKeywords = []string{
	"vp", "vice president", "director", "head of", "partner", "principal",
}

var managerKeywords = []string{
	"manager", "lead", "leiter",
}

// ScoringInput carries everything the scoring rules look at.
type ScoringInput struct {
	Email            string
	JobTitle         string
	Industry         string
	CompanySize      string
	Website          string
	Phone            string
	SessionDownloads int // count including the current download
}

// ScoringService computes lead-quality scores from static weighted rules.
// It is deliberately pure so scores are reproducible for the same input.
type ScoringService struct {
	targetIndustries map[string]bool
}

// NewScoringService creates a scoring service with the configured
// target-industry list (matching is case-insensitive).
func NewScoringService(targetIndustries []string) *ScoringService {
	targets := make(map[string]bool, len(targetIndustries))
	for _, industry := range targetIndustries {
		targets[strings.ToLower(strings.TrimSpace(industry))] = true
	}
	return &ScoringService{targetIndustries: targets}
}

// Score computes the lead score for the input, clamped to [0, 100].
func (s *ScoringService) Score(input ScoringInput) int {
	score := 0
	score += s.domainScore(input.Email)
	score += s.titleScore(input.JobTitle)
	score += s.companySizeScore(input.CompanySize)
	score += s.industryScore(input.Industry)
	score += s.engagementScore(input.SessionDownloads)
	score += s.completenessScore(input)

	if score > scoreMax {
		score = scoreMax
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (s *ScoringService) domainScore(email string) int {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return 0
	}
	domain := strings.ToLower(email[at+1:])
	if domain == "" || freeMailDomains[domain] {
		return 0
	}
	return scoreCorporateDomain
}

func (s *ScoringService) titleScore(jobTitle string) int {
	title := strings.ToLower(jobTitle)
	if title == "" {
		return 0
	}
	for _, kw := range cLevelKeywords {
		if containsWord(title, kw) {
			return scoreCLevelTitle
		}
	}
	for _, kw := range seniorKeywords {
		if containsWord(title, kw) {
			return scoreSeniorTitle
		}
	}
	for _, kw := range managerKeywords {
		if containsWord(title, kw) {
			return scoreManagerTitle
		}
	}
	return 0
}

func (s *ScoringService) companySizeScore(companySize string) int {
	switch strings.ToLower(strings.TrimSpace(companySize)) {
	case "1000+", "1000-4999", "5000+":
		return scoreCompanySizeLarge
	case "200-999", "500-999", "200-499":
		return scoreCompanySizeMedium
	case "50-199":
		return scoreCompanySizeSmall
	default:
		return 0
	}
}

func (s *ScoringService) industryScore(industry string) int {
	if s.targetIndustries[strings.ToLower(strings.TrimSpace(industry))] {
		return scoreTargetIndustry
	}
	return 0
}

func (s *ScoringService) engagementScore(sessionDownloads int) int {
	if sessionDownloads >= 2 {
		return scoreRepeatDownloader
	}
	return 0
}

func (s *ScoringService) completenessScore(input ScoringInput) int {
	if input.Website != "" && input.Phone != "" && input.JobTitle != "" &&
		input.Industry != "" && input.CompanySize != "" {
		return scoreCompleteProfile
	}
	return 0
}

// containsWord matches a keyword on word boundaries so "coop" does not score
// as "coo".
func containsWord(haystack, keyword string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], keyword)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(keyword)
		beforeOK := start == 0 || !isAlnum(haystack[start-1])
		afterOK := end == len(haystack) || !isAlnum(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
