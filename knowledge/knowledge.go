// Package knowledge loads and serves the static symptom and disease catalogs
// that back both the ML and rule-based prediction paths.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	log "log/slog"

	"github.com/sharedcode/healthai"
)

// Symptom is one catalog entry. Name is the unique, case-insensitive match key
// used by the feature vectorizer and the rule-based scorer.
type Symptom struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Category    string   `json:"category"`
}

// Disease is one catalog entry mapping a named condition to its
// characteristic symptoms and referral metadata.
type Disease struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Symptoms    []string           `json:"symptoms"`
	RiskLevel   healthai.RiskLevel `json:"risk_level"`
	Treatment   string             `json:"treatment"`
	Specialist  string             `json:"specialist"`
	Urgency     string             `json:"urgency"`
}

type symptomsFile struct {
	Symptoms []Symptom `json:"symptoms"`
}

type diseasesFile struct {
	Diseases []Disease `json:"diseases"`
}

// Base is the loaded knowledge base. It is immutable after Load and safe for
// concurrent readers.
type Base struct {
	symptoms []Symptom
	diseases []Disease

	// symptomIndex maps lowercased symptom name to its catalog position.
	symptomIndex map[string]int
	diseaseIndex map[string]int
}

// Load reads the two catalog files. A missing or unreadable file degrades to
// an empty catalog rather than failing; malformed entries are skipped.
func Load(symptomsPath, diseasesPath string) *Base {
	b := &Base{
		symptomIndex: make(map[string]int),
		diseaseIndex: make(map[string]int),
	}

	var sf symptomsFile
	if err := readJSON(symptomsPath, &sf); err != nil {
		log.Warn("symptom catalog unavailable, using empty catalog", "path", symptomsPath, "error", err)
	}
	for _, s := range sf.Symptoms {
		if strings.TrimSpace(s.Name) == "" {
			log.Warn("skipping symptom catalog entry with empty name", "id", s.ID)
			continue
		}
		key := strings.ToLower(s.Name)
		if _, dup := b.symptomIndex[key]; dup {
			log.Warn("skipping duplicate symptom catalog entry", "name", s.Name)
			continue
		}
		b.symptomIndex[key] = len(b.symptoms)
		b.symptoms = append(b.symptoms, s)
	}

	var df diseasesFile
	if err := readJSON(diseasesPath, &df); err != nil {
		log.Warn("disease catalog unavailable, using empty catalog", "path", diseasesPath, "error", err)
	}
	for _, d := range df.Diseases {
		if strings.TrimSpace(d.Name) == "" {
			log.Warn("skipping disease catalog entry with empty name")
			continue
		}
		if !d.RiskLevel.Valid() {
			log.Warn("skipping disease catalog entry with invalid risk level",
				"name", d.Name, "risk_level", d.RiskLevel)
			continue
		}
		key := strings.ToLower(d.Name)
		if _, dup := b.diseaseIndex[key]; dup {
			log.Warn("skipping duplicate disease catalog entry", "name", d.Name)
			continue
		}
		b.diseaseIndex[key] = len(b.diseases)
		b.diseases = append(b.diseases, d)
	}

	log.Info("knowledge base loaded", "symptoms", len(b.symptoms), "diseases", len(b.diseases))
	return b
}

// NewBase builds a knowledge base directly from catalog slices. Used by tests
// and embedders of custom catalogs; applies the same validation as Load.
func NewBase(symptoms []Symptom, diseases []Disease) *Base {
	b := &Base{
		symptomIndex: make(map[string]int),
		diseaseIndex: make(map[string]int),
	}
	for _, s := range symptoms {
		if strings.TrimSpace(s.Name) == "" {
			continue
		}
		key := strings.ToLower(s.Name)
		if _, dup := b.symptomIndex[key]; dup {
			continue
		}
		b.symptomIndex[key] = len(b.symptoms)
		b.symptoms = append(b.symptoms, s)
	}
	for _, d := range diseases {
		if strings.TrimSpace(d.Name) == "" || !d.RiskLevel.Valid() {
			continue
		}
		key := strings.ToLower(d.Name)
		if _, dup := b.diseaseIndex[key]; dup {
			continue
		}
		b.diseaseIndex[key] = len(b.diseases)
		b.diseases = append(b.diseases, d)
	}
	return b
}

func readJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Symptoms returns the symptom catalog in load order. The slice is shared;
// callers must not mutate it.
func (b *Base) Symptoms() []Symptom { return b.symptoms }

// Diseases returns the disease catalog in load order.
func (b *Base) Diseases() []Disease { return b.diseases }

// SymptomNames returns the lowercased symptom names in catalog order. This
// ordering defines the feature-vector layout; a fresh slice is allocated per
// call.
func (b *Base) SymptomNames() []string {
	names := make([]string, len(b.symptoms))
	for i, s := range b.symptoms {
		names[i] = strings.ToLower(s.Name)
	}
	return names
}

// SymptomIndex returns the feature-vector slot for a symptom name, matched
// case-insensitively. ok is false for names not in the catalog.
func (b *Base) SymptomIndex(name string) (int, bool) {
	idx, ok := b.symptomIndex[strings.ToLower(name)]
	return idx, ok
}

// SymptomByName returns the catalog entry matching name case-insensitively.
func (b *Base) SymptomByName(name string) (Symptom, bool) {
	idx, ok := b.symptomIndex[strings.ToLower(name)]
	if !ok {
		return Symptom{}, false
	}
	return b.symptoms[idx], true
}

// DiseaseByName returns the catalog entry matching name case-insensitively.
func (b *Base) DiseaseByName(name string) (Disease, bool) {
	idx, ok := b.diseaseIndex[strings.ToLower(name)]
	if !ok {
		return Disease{}, false
	}
	return b.diseases[idx], true
}

// DiseaseInfo returns the catalog entry for name, or a defaulted record when
// the disease is not in the catalog (e.g. the synthetic "Other" class).
func (b *Base) DiseaseInfo(name string) Disease {
	if d, ok := b.DiseaseByName(name); ok {
		return d
	}
	return Disease{
		Name:        name,
		Description: "AI-predicted condition",
		RiskLevel:   healthai.RiskMedium,
		Treatment:   "Consult healthcare provider for proper diagnosis and treatment",
		Specialist:  "General Practitioner",
		Urgency:     "Schedule appointment with healthcare provider",
	}
}
