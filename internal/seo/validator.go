// Package seo scores generated content for on-page optimization quality.
// Everything in here is a pure function over its inputs.
package seo

import (
	"math"
	"strings"

	"github.com/inkwell-hq/inkwell/internal/models"
	"github.com/inkwell-hq/inkwell/pkg/util"
)

// Content is the input to Validate.
type Content struct {
	Title           string
	MetaTitle       string
	MetaDescription string
	Content         string
	Headings        []models.Heading
	Images          []models.PostImage
	TargetKeyword   string
}

// Issue is a single threshold violation found during validation.
type Issue struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Score is the composite result of validating one piece of content.
type Score struct {
	ReadabilityScore      float64 `json:"readability_score"`
	ReadabilityGrade      string  `json:"readability_grade"`
	MetaTitleLength       int     `json:"meta_title_length"`
	MetaDescriptionLength int     `json:"meta_description_length"`
	HeadingStructureValid bool    `json:"heading_structure_valid"`
	KeywordDensity        float64 `json:"keyword_density"`
	AltTagsCoverage       float64 `json:"alt_tags_coverage"`
	OverallSeoScore       float64 `json:"overall_seo_score"`
	Issues                []Issue `json:"validation_errors"`
}

const (
	metaTitleMin = 50
	metaTitleMax = 60
	metaDescMin  = 150
	metaDescMax  = 160
	densityMin   = 0.5
	densityMax   = 2.5
)

// Validate scores content and collects threshold violations.
func Validate(c Content) Score {
	s := Score{
		MetaTitleLength:       len([]rune(c.MetaTitle)),
		MetaDescriptionLength: len([]rune(c.MetaDescription)),
		Issues:                []Issue{},
	}

	s.ReadabilityScore = FleschReadingEase(c.Content)
	s.ReadabilityGrade = ReadabilityGrade(s.ReadabilityScore)
	s.HeadingStructureValid = ValidateHeadings(c.Headings)
	s.KeywordDensity = KeywordDensity(c.Content, c.TargetKeyword)
	s.AltTagsCoverage = AltCoverage(c.Images)

	if s.ReadabilityScore < 60 {
		s.Issues = append(s.Issues, Issue{
			Field:    "content",
			Message:  "content is difficult to read for a general audience",
			Severity: SeverityWarning,
		})
	}
	if s.MetaTitleLength == 0 {
		s.Issues = append(s.Issues, Issue{
			Field:    "metaTitle",
			Message:  "meta title is missing",
			Severity: SeverityError,
		})
	} else if s.MetaTitleLength < metaTitleMin || s.MetaTitleLength > metaTitleMax {
		s.Issues = append(s.Issues, Issue{
			Field:    "metaTitle",
			Message:  "meta title should be 50-60 characters",
			Severity: SeverityWarning,
		})
	}
	if s.MetaDescriptionLength == 0 {
		s.Issues = append(s.Issues, Issue{
			Field:    "metaDescription",
			Message:  "meta description is missing",
			Severity: SeverityError,
		})
	} else if s.MetaDescriptionLength < metaDescMin || s.MetaDescriptionLength > metaDescMax {
		s.Issues = append(s.Issues, Issue{
			Field:    "metaDescription",
			Message:  "meta description should be 150-160 characters",
			Severity: SeverityWarning,
		})
	}
	if !s.HeadingStructureValid {
		s.Issues = append(s.Issues, Issue{
			Field:    "headings",
			Message:  "heading levels must start at h1 and never skip a level",
			Severity: SeverityError,
		})
	}
	if c.TargetKeyword != "" {
		if s.KeywordDensity == 0 {
			s.Issues = append(s.Issues, Issue{
				Field:    "content",
				Message:  "target keyword does not appear in the content",
				Severity: SeverityError,
			})
		} else if s.KeywordDensity < densityMin || s.KeywordDensity > densityMax {
			s.Issues = append(s.Issues, Issue{
				Field:    "content",
				Message:  "keyword density should be between 0.5% and 2.5%",
				Severity: SeverityWarning,
			})
		}
	}
	if s.AltTagsCoverage < 100 {
		s.Issues = append(s.Issues, Issue{
			Field:    "images",
			Message:  "some images are missing alt text",
			Severity: SeverityWarning,
		})
	}

	s.OverallSeoScore = round2(overall(s))
	return s
}

// overall is the unweighted mean of six components, each normalized to 0-100.
func overall(s Score) float64 {
	readability := math.Min(math.Max(s.ReadabilityScore, 0), 100)

	metaTitle := rangeComponent(float64(s.MetaTitleLength), metaTitleMin, metaTitleMax)
	metaDesc := rangeComponent(float64(s.MetaDescriptionLength), metaDescMin, metaDescMax)

	headings := 0.0
	if s.HeadingStructureValid {
		headings = 100
	}

	density := 0.0
	switch {
	case s.KeywordDensity >= densityMin && s.KeywordDensity <= densityMax:
		density = 100
	case s.KeywordDensity > 0:
		density = 50
	}

	return (readability + metaTitle + metaDesc + headings + density + s.AltTagsCoverage) / 6
}

func rangeComponent(length, min, max float64) float64 {
	switch {
	case length >= min && length <= max:
		return 100
	case length > 0:
		return 60
	default:
		return 0
	}
}

// ValidateHeadings checks that the first heading is level 1 and that no
// heading is more than one level deeper than its predecessor.
func ValidateHeadings(headings []models.Heading) bool {
	if len(headings) == 0 {
		return true
	}
	if headings[0].Level != 1 {
		return false
	}
	prev := headings[0].Level
	for _, h := range headings[1:] {
		if h.Level > prev+1 {
			return false
		}
		prev = h.Level
	}
	return true
}

// KeywordDensity is the exact-phrase match count over total words, as a
// percentage rounded to two decimals. Matching is case-insensitive.
func KeywordDensity(content, keyword string) float64 {
	words := util.Words(strings.ToLower(content))
	phrase := util.Words(strings.ToLower(keyword))
	if len(words) == 0 || len(phrase) == 0 {
		return 0
	}

	matches := 0
	for i := 0; i+len(phrase) <= len(words); i++ {
		found := true
		for j, p := range phrase {
			if words[i+j] != p {
				found = false
				break
			}
		}
		if found {
			matches++
		}
	}

	return round2(float64(matches) / float64(len(words)) * 100)
}

// AltCoverage is the percentage of images with non-empty alt text.
// An empty image list counts as full coverage.
func AltCoverage(images []models.PostImage) float64 {
	if len(images) == 0 {
		return 100
	}
	withAlt := 0
	for _, img := range images {
		if strings.TrimSpace(img.AltText) != "" {
			withAlt++
		}
	}
	return round2(float64(withAlt) / float64(len(images)) * 100)
}

// FleschReadingEase computes the Flesch reading-ease score for text.
func FleschReadingEase(text string) float64 {
	words := util.Words(text)
	if len(words) == 0 {
		return 0
	}

	sentences := countSentences(text)
	syllables := 0
	for _, w := range words {
		syllables += CountSyllables(w)
	}

	score := 206.835 -
		1.015*(float64(len(words))/float64(sentences)) -
		84.6*(float64(syllables)/float64(len(words)))
	return round2(score)
}

// ReadabilityGrade maps a reading-ease score to a grade-level bucket.
func ReadabilityGrade(score float64) string {
	switch {
	case score >= 90:
		return "5th grade"
	case score >= 80:
		return "6th grade"
	case score >= 70:
		return "7th grade"
	case score >= 60:
		return "8th-9th grade"
	case score >= 50:
		return "10th-12th grade"
	case score >= 30:
		return "college"
	default:
		return "college graduate"
	}
}

// CountSyllables estimates syllables by counting vowel-group transitions,
// subtracting one for a silent trailing "e". Every word has at least one.
func CountSyllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

func countSentences(text string) int {
	n := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			n++
		}
	}
	if n == 0 {
		n = 1
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
