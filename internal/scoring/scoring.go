package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"inkwell/internal/content"
	"inkwell/internal/textutil"
)

// Check weights. They must sum to 1.0; see TestWeightsSumToOne.
const (
	weightFactualAccuracy   = 0.25
	weightSEOCompliance     = 0.20
	weightResearchAlignment = 0.20
	weightUniqueness        = 0.20
	weightQuality           = 0.15
)

// Critical failure thresholds.
const (
	criticalFactualCoverage   = 0.70
	criticalAlignmentCoverage = 0.80
	criticalSimilarity        = 0.20
)

// SEO validation ranges.
const (
	keywordDensityMin  = 1.0
	keywordDensityMax  = 3.0
	metaTitleMin       = 50
	metaTitleMax       = 60
	metaDescriptionMin = 140
	metaDescriptionMax = 160
	internalLinksMin   = 2
	internalLinksMax   = 5
	imagesMin          = 3
	imagesMax          = 5
)

// Quality thresholds.
const (
	wordCountMin      = 2500
	wordCountMax      = 3500
	fleschMin         = 60.0
	maxRecentCompared = 10
)

// Feedback thresholds for strengths and concerns. Descriptive only; the
// numeric decision ignores them.
const (
	strengthScore = 90
	concernScore  = 70
)

var sentenceSplitPattern = regexp.MustCompile(`[.!?]+`)

// Score evaluates the article against its research report and the recent
// publication corpus.
func Score(article content.Article, report content.ResearchReport, recent []content.RecentArticle) Report {
	checks := []CheckResult{
		checkFactualAccuracy(article, report),
		checkSEOCompliance(article, report),
		checkResearchAlignment(article, report),
		checkUniqueness(article, recent),
		checkQuality(article),
	}

	weighted := 0.0
	critical := false
	for _, check := range checks {
		weighted += float64(check.Score) * check.Weight
		if check.Critical {
			critical = true
		}
	}
	overall := int(math.Round(weighted))

	result := Report{
		OverallScore: overall,
		Decision:     DecisionFor(overall, critical),
		Checks:       checks,
	}
	for _, check := range checks {
		switch {
		case check.Critical:
			result.Concerns = append(result.Concerns, fmt.Sprintf("%s failed critically: %s", check.Name, check.Detail))
		case check.Score < concernScore:
			result.Concerns = append(result.Concerns, fmt.Sprintf("%s scored %d: %s", check.Name, check.Score, check.Detail))
		case check.Score >= strengthScore:
			result.Strengths = append(result.Strengths, fmt.Sprintf("%s scored %d", check.Name, check.Score))
		}
	}
	return result
}

// checkFactualAccuracy measures how many of the research key facts are
// traceable in the article. A fact counts as present when any of its first
// three significant tokens appears in the article text.
func checkFactualAccuracy(article content.Article, report content.ResearchReport) CheckResult {
	articleTokens := textutil.TokenSet(articleText(article))

	found := 0
	var missing []string
	for _, fact := range report.KeyFacts {
		tokens := textutil.Tokenize(fact)
		if len(tokens) > 3 {
			tokens = tokens[:3]
		}
		if anyTokenPresent(articleTokens, tokens) {
			found++
		} else {
			missing = append(missing, fact)
		}
	}

	coverage := 1.0
	if len(report.KeyFacts) > 0 {
		coverage = float64(found) / float64(len(report.KeyFacts))
	}

	detail := fmt.Sprintf("%d of %d key facts covered", found, len(report.KeyFacts))
	if len(missing) > 0 {
		detail += "; missing: " + strings.Join(truncateList(missing, 3), ", ")
	}

	critical := coverage < criticalFactualCoverage
	score := int(math.Round(coverage * 100))
	return CheckResult{
		Name:     CheckFactualAccuracy,
		Score:    score,
		Weight:   weightFactualAccuracy,
		Passed:   !critical,
		Critical: critical,
		Detail:   detail,
	}
}

// checkSEOCompliance scores five sub-criteria with equal contribution.
// Out-of-range values degrade proportionally to the distance from the
// nearest bound instead of failing outright.
func checkSEOCompliance(article content.Article, report content.ResearchReport) CheckResult {
	text := articleText(article)
	totalWords := content.CountWords(text)

	density := averageKeywordDensity(text, totalWords, report.PrimaryKeywords)
	subScores := []float64{
		rangeScore(density, keywordDensityMin, keywordDensityMax),
		rangeScore(float64(len(article.SEO.MetaTitle)), metaTitleMin, metaTitleMax),
		rangeScore(float64(len(article.SEO.MetaDescription)), metaDescriptionMin, metaDescriptionMax),
		rangeScore(float64(len(article.InternalLinks)), internalLinksMin, internalLinksMax),
		rangeScore(float64(len(article.Images)), imagesMin, imagesMax),
	}

	total := 0.0
	for _, sub := range subScores {
		total += sub
	}
	score := int(math.Round(total / float64(len(subScores))))

	detail := fmt.Sprintf(
		"keyword density %.2f%%, meta title %d chars, meta description %d chars, %d internal links, %d images",
		density, len(article.SEO.MetaTitle), len(article.SEO.MetaDescription),
		len(article.InternalLinks), len(article.Images),
	)
	return CheckResult{
		Name:   CheckSEOCompliance,
		Score:  score,
		Weight: weightSEOCompliance,
		Passed: score >= concernScore,
		Detail: detail,
	}
}

// checkResearchAlignment measures how many must-include items made it into
// the article. An item counts as present when any of its first two
// significant tokens appears in the article text.
func checkResearchAlignment(article content.Article, report content.ResearchReport) CheckResult {
	articleTokens := textutil.TokenSet(articleText(article))

	found := 0
	var missing []string
	for _, item := range report.MustInclude {
		tokens := textutil.Tokenize(item)
		if len(tokens) > 2 {
			tokens = tokens[:2]
		}
		if anyTokenPresent(articleTokens, tokens) {
			found++
		} else {
			missing = append(missing, item)
		}
	}

	coverage := 1.0
	if len(report.MustInclude) > 0 {
		coverage = float64(found) / float64(len(report.MustInclude))
	}

	detail := fmt.Sprintf("%d of %d must-include items present", found, len(report.MustInclude))
	if len(missing) > 0 {
		detail += "; missing: " + strings.Join(truncateList(missing, 3), ", ")
	}

	critical := coverage < criticalAlignmentCoverage
	score := int(math.Round(coverage * 100))
	return CheckResult{
		Name:     CheckResearchAlignment,
		Score:    score,
		Weight:   weightResearchAlignment,
		Passed:   !critical,
		Critical: critical,
		Detail:   detail,
	}
}

// checkUniqueness compares the article against up to the ten most recent
// published articles and scores down as the worst-case Jaccard similarity
// rises. An empty corpus passes with full credit.
func checkUniqueness(article content.Article, recent []content.RecentArticle) CheckResult {
	if len(recent) > maxRecentCompared {
		recent = recent[:maxRecentCompared]
	}

	text := articleText(article)
	maxSimilarity := 0.0
	closest := ""
	for _, prior := range recent {
		similarity := textutil.JaccardSimilarity(text, prior.Body)
		if similarity > maxSimilarity {
			maxSimilarity = similarity
			closest = prior.Title
		}
	}

	detail := fmt.Sprintf("max similarity %.2f against %d recent articles", maxSimilarity, len(recent))
	if closest != "" {
		detail += fmt.Sprintf(" (closest: %s)", closest)
	}

	critical := maxSimilarity >= criticalSimilarity
	score := int(math.Round((1 - maxSimilarity) * 100))
	return CheckResult{
		Name:     CheckUniqueness,
		Score:    score,
		Weight:   weightUniqueness,
		Passed:   !critical,
		Critical: critical,
		Detail:   detail,
	}
}

// checkQuality combines word count range and a readability estimate. Full
// credit requires both; one gives half credit.
func checkQuality(article content.Article) CheckResult {
	text := articleText(article)
	wordCount := article.WordCount
	if wordCount == 0 {
		wordCount = content.CountWords(text)
	}
	wordCountOK := wordCount >= wordCountMin && wordCount <= wordCountMax

	flesch := fleschEstimate(text)
	readableOK := flesch >= fleschMin

	score := 0
	switch {
	case wordCountOK && readableOK:
		score = 100
	case wordCountOK || readableOK:
		score = 50
	}

	detail := fmt.Sprintf("word count %d (target %d-%d), readability estimate %.0f (minimum %.0f)",
		wordCount, wordCountMin, wordCountMax, flesch, fleschMin)
	return CheckResult{
		Name:   CheckQuality,
		Score:  score,
		Weight: weightQuality,
		Passed: score == 100,
		Detail: detail,
	}
}

// rangeScore gives full credit inside [min, max] and degrades proportionally
// to the distance from the nearest bound outside it.
func rangeScore(value, min, max float64) float64 {
	switch {
	case value >= min && value <= max:
		return 100
	case value < min:
		if min <= 0 {
			return 0
		}
		return math.Max(0, value/min*100)
	default:
		return math.Max(0, max/value*100)
	}
}

// fleschEstimate approximates reading ease from average sentence length. The
// real formula needs syllable counts; sentence length alone is a usable
// proxy for gate purposes.
func fleschEstimate(text string) float64 {
	sentences := 0
	for _, chunk := range sentenceSplitPattern.Split(text, -1) {
		if strings.TrimSpace(chunk) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		return 0
	}
	avgSentenceLength := float64(content.CountWords(text)) / float64(sentences)
	return math.Max(0, math.Min(100, 100-avgSentenceLength*2))
}

func averageKeywordDensity(text string, totalWords int, keywords []content.Keyword) float64 {
	if totalWords == 0 || len(keywords) == 0 {
		return 0
	}
	if len(keywords) > 2 {
		keywords = keywords[:2]
	}
	lowered := strings.ToLower(text)
	total := 0.0
	counted := 0
	for _, kw := range keywords {
		term := strings.ToLower(strings.TrimSpace(kw.Keyword))
		if term == "" {
			continue
		}
		occurrences := strings.Count(lowered, term)
		total += float64(occurrences) / float64(totalWords) * 100
		counted++
	}
	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}

func anyTokenPresent(set map[string]struct{}, tokens []string) bool {
	for _, token := range tokens {
		if _, ok := set[token]; ok {
			return true
		}
	}
	return false
}

func articleText(article content.Article) string {
	if article.Body != "" {
		return article.Body
	}
	return article.Title
}

func truncateList(values []string, limit int) []string {
	if len(values) <= limit {
		return values
	}
	return values[:limit]
}
