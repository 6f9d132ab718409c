package submissions

import (
	"strings"
	"time"
	"unicode"
)

// MaxFeatures bounds the free-text invention feature list.
const MaxFeatures = 6

// Wizard steps, in order.
const (
	StepProject   = 0
	StepInvention = 1
	StepDocuments = 2
	StepReview    = 3
	StepPayment   = 4
)

// FormPayload is the structured wizard state carried on a submission.
type FormPayload struct {
	Project      ProjectDetails    `json:"project"`
	Invention    InventionDetails  `json:"invention"`
	Markets      []string          `json:"markets,omitempty"`
	Consultation ConsultationAsk   `json:"consultation"`
	Extras       PurchasedUpgrades `json:"extras"`
}

// ProjectDetails captures step-0 project and contact information.
type ProjectDetails struct {
	ProjectName string `json:"projectName"`
	ContactName string `json:"contactName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// InventionDetails captures step-1 invention metadata.
type InventionDetails struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features,omitempty"`
}

// ConsultationAsk records an optional scheduled consultation.
type ConsultationAsk struct {
	Requested   bool       `json:"requested"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

// PurchasedUpgrades flags paid add-ons that relax validation.
type PurchasedUpgrades struct {
	AutoGeneratedFeatures bool `json:"autoGeneratedFeatures"`
}

// ValidateStep returns the required fields still missing at the given wizard
// step. An empty result means the step's "Next" action may be enabled. Steps
// 2-4 carry no blocking validation.
func ValidateStep(step int, form FormPayload) []string {
	var missing []string
	switch step {
	case StepProject:
		if strings.TrimSpace(form.Project.ProjectName) == "" {
			missing = append(missing, "projectName")
		}
		if strings.TrimSpace(form.Project.ContactName) == "" {
			missing = append(missing, "contactName")
		}
		if strings.TrimSpace(form.Project.Email) == "" {
			missing = append(missing, "email")
		}
		if strings.TrimSpace(form.Project.Phone) == "" {
			missing = append(missing, "phone")
		}
		if form.Consultation.Requested && form.Consultation.ScheduledAt == nil {
			missing = append(missing, "consultation.scheduledAt")
		}
	case StepInvention:
		if strings.TrimSpace(form.Invention.Title) == "" {
			missing = append(missing, "invention.title")
		}
		if strings.TrimSpace(form.Invention.Description) == "" {
			missing = append(missing, "invention.description")
		}
		if !form.Extras.AutoGeneratedFeatures && countNonEmpty(form.Invention.Features) == 0 {
			missing = append(missing, "invention.features")
		}
	}
	return missing
}

func countNonEmpty(values []string) int {
	count := 0
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			count++
		}
	}
	return count
}

// capFeatures drops feature entries beyond MaxFeatures. The wizard renders
// exactly that many inputs, so overflow in a payload is discarded rather
// than rejected; stored forms never carry more.
func capFeatures(form FormPayload) FormPayload {
	if len(form.Invention.Features) > MaxFeatures {
		form.Invention.Features = form.Invention.Features[:MaxFeatures]
	}
	return form
}

// TitleCase upper-cases the first letter of each space-separated word,
// leaving the remainder of the word untouched so acronyms survive. The
// transform is idempotent: applying it twice yields the same string.
func TitleCase(value string) string {
	words := strings.Fields(value)
	for index, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[index] = string(runes)
	}
	return strings.Join(words, " ")
}

// ReviewView is the rendering of a form for the review step.
type ReviewView struct {
	ProjectName string   `json:"projectName"`
	ContactName string   `json:"contactName"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Markets     []string `json:"markets"`
}

// RenderReview produces the review-step view: title-cased display names,
// features in submission order, and the phone number exactly as entered.
func RenderReview(form FormPayload) ReviewView {
	features := make([]string, 0, len(form.Invention.Features))
	for _, feature := range form.Invention.Features {
		if strings.TrimSpace(feature) == "" {
			continue
		}
		features = append(features, TitleCase(feature))
	}
	return ReviewView{
		ProjectName: TitleCase(form.Project.ProjectName),
		ContactName: TitleCase(form.Project.ContactName),
		Email:       strings.TrimSpace(form.Project.Email),
		Phone:       form.Project.Phone,
		Title:       TitleCase(form.Invention.Title),
		Description: form.Invention.Description,
		Features:    features,
		Markets:     form.Markets,
	}
}
