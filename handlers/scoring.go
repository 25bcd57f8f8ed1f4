// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/danielhkuo/youthgov-queue/models"
)

// Field weights for the validation score, in points out of 100
const (
	weightLastName  = 30
	weightFirstName = 30
	weightBarangay  = 20
	weightAge       = 20
)

// Applicant is the identity part of a survey submission used for matching
type Applicant struct {
	FirstName string
	LastName  string
	Age       int
	Barangay  string
}

// normalizeName case-folds and collapses whitespace, matching the stored
// *_key columns
func normalizeName(s string) string {
	return models.FoldName(s)
}

// normalizePhone keeps digits only and maps the +63 country prefix to the
// local 0 prefix so "+63 917 123 4567" equals "09171234567"
func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "63") && len(digits) == 12 {
		return "0" + digits[2:]
	}
	return digits
}

func ageDistance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// scoreCandidate returns the weighted field agreement in [0, 1]
func scoreCandidate(a, c Applicant) float64 {
	var points int
	if normalizeName(a.LastName) == normalizeName(c.LastName) {
		points += weightLastName
	}
	if normalizeName(a.FirstName) == normalizeName(c.FirstName) {
		points += weightFirstName
	}
	if normalizeName(a.Barangay) == normalizeName(c.Barangay) {
		points += weightBarangay
	}
	switch ageDistance(a.Age, c.Age) {
	case 0:
		points += weightAge
	case 1:
		points += weightAge / 2
	}
	return float64(points) / 100
}

// ClassifyVoterMatch compares an applicant against registry candidates and
// returns the voter match classification and the best validation score.
//
//   - exact: names, barangay and age all equal
//   - partial: names equal and either barangay equal or age within one year
//   - no_match: anything else, including an empty candidate list
func ClassifyVoterMatch(a Applicant, candidates []Applicant) (string, float64) {
	match := models.VoterMatchNone
	var best float64

	for _, c := range candidates {
		if s := scoreCandidate(a, c); s > best {
			best = s
		}

		namesEqual := normalizeName(a.FirstName) == normalizeName(c.FirstName) &&
			normalizeName(a.LastName) == normalizeName(c.LastName)
		if !namesEqual {
			continue
		}
		barangayEqual := normalizeName(a.Barangay) == normalizeName(c.Barangay)
		if barangayEqual && a.Age == c.Age {
			match = models.VoterMatchExact
		} else if match != models.VoterMatchExact && (barangayEqual || ageDistance(a.Age, c.Age) <= 1) {
			match = models.VoterMatchPartial
		}
	}

	return match, best
}

// DetectContactMismatch compares the stored contact details of an existing
// profile with a new submission. Empty values on either side never count as
// a difference. Returns nil when nothing differs.
func DetectContactMismatch(existing, submitted models.ContactInfo) *models.ContactMismatch {
	contactDiffers := existing.Contact != "" && submitted.Contact != "" &&
		normalizePhone(existing.Contact) != normalizePhone(submitted.Contact)
	emailDiffers := existing.Email != "" && submitted.Email != "" &&
		!strings.EqualFold(strings.TrimSpace(existing.Email), strings.TrimSpace(submitted.Email))

	var mismatchType, severity string
	switch {
	case contactDiffers && emailDiffers:
		mismatchType, severity = models.MismatchBoth, models.SeverityHigh
	case contactDiffers:
		mismatchType, severity = models.MismatchContact, models.SeverityLow
	case emailDiffers:
		mismatchType, severity = models.MismatchEmail, models.SeverityLow
	default:
		return nil
	}

	return &models.ContactMismatch{
		Type:     mismatchType,
		Severity: severity,
		Existing: existing,
		New:      submitted,
	}
}

// loadVoterCandidates returns registry rows sharing the applicant's first or
// last name
func loadVoterCandidates(q querier, a Applicant) ([]Applicant, error) {
	rows, err := q.Query(`
		SELECT first_name, last_name, age, barangay
		FROM voter_registry
		WHERE last_key = $1 OR first_key = $2
	`, normalizeName(a.LastName), normalizeName(a.FirstName))
	if err != nil {
		return nil, fmt.Errorf("query voter registry: %w", err)
	}
	defer rows.Close()

	var candidates []Applicant
	for rows.Next() {
		var c Applicant
		if err := rows.Scan(&c.FirstName, &c.LastName, &c.Age, &c.Barangay); err != nil {
			return nil, fmt.Errorf("scan voter: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// existingProfile is the subset of a youth profile used for mismatch checks
type existingProfile struct {
	ID      string
	Contact string
	Email   string
}

// findExistingProfile looks up the oldest profile with the same name and
// barangay. Returns nil when there is none.
func findExistingProfile(q querier, a Applicant) (*existingProfile, error) {
	var p existingProfile
	err := q.QueryRow(`
		SELECT id, contact, email
		FROM youth_profile
		WHERE first_key = $1 AND last_key = $2 AND barangay_key = $3
		ORDER BY created_at, id
		LIMIT 1
	`, normalizeName(a.FirstName), normalizeName(a.LastName), normalizeName(a.Barangay)).Scan(&p.ID, &p.Contact, &p.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query youth profile: %w", err)
	}
	return &p, nil
}
