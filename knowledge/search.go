package knowledge

import (
	"fmt"
	"strings"
)

// SearchSymptoms returns catalog entries whose name, description, or any
// keyword contains query, matched case-insensitively. An empty query returns
// the first limit entries unfiltered. At most limit entries are returned.
func (b *Base) SearchSymptoms(query string, limit int) []Symptom {
	if limit <= 0 {
		return nil
	}
	if query == "" {
		if limit > len(b.symptoms) {
			limit = len(b.symptoms)
		}
		out := make([]Symptom, limit)
		copy(out, b.symptoms[:limit])
		return out
	}

	q := strings.ToLower(query)
	var matches []Symptom
	for _, s := range b.symptoms {
		if len(matches) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(s.Name), q) ||
			strings.Contains(strings.ToLower(s.Description), q) {
			matches = append(matches, s)
			continue
		}
		for _, kw := range s.Keywords {
			if strings.Contains(strings.ToLower(kw), q) {
				matches = append(matches, s)
				break
			}
		}
	}
	return matches
}

// Specialization describes a medical specialization and the keywords that
// hint at it in free-text complaints.
type Specialization struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// specializations is the built-in specialization reference. Keyword lists
// feed the appointment layer's free-text matching.
var specializations = map[string]Specialization{
	"cardiology": {
		Name:        "Cardiology",
		Description: "Diagnosis and treatment of heart and cardiovascular conditions.",
		Keywords:    []string{"heart", "cardiac", "cardiovascular", "chest pain", "blood pressure", "arrhythmia"},
	},
	"pulmonology": {
		Name:        "Pulmonology",
		Description: "Care of the lungs and respiratory system.",
		Keywords:    []string{"lung", "respiratory", "breathing", "cough", "asthma", "pneumonia"},
	},
	"gastroenterology": {
		Name:        "Gastroenterology",
		Description: "Disorders of the stomach, intestines, and digestive tract.",
		Keywords:    []string{"stomach", "digestive", "intestinal", "bowel", "liver", "gallbladder"},
	},
	"neurology": {
		Name:        "Neurology",
		Description: "Disorders of the brain, spinal cord, and nervous system.",
		Keywords:    []string{"brain", "neurological", "headache", "seizure", "stroke", "memory"},
	},
	"orthopedics": {
		Name:        "Orthopedics",
		Description: "Conditions of the bones, joints, muscles, and spine.",
		Keywords:    []string{"bone", "joint", "muscle", "fracture", "spine", "back pain"},
	},
	"dermatology": {
		Name:        "Dermatology",
		Description: "Diseases of the skin, hair, and nails.",
		Keywords:    []string{"skin", "rash", "acne", "eczema", "mole", "dermatitis"},
	},
	"endocrinology": {
		Name:        "Endocrinology",
		Description: "Hormonal and metabolic disorders such as diabetes and thyroid disease.",
		Keywords:    []string{"diabetes", "thyroid", "hormone", "metabolism", "weight"},
	},
	"psychiatry": {
		Name:        "Psychiatry",
		Description: "Mental health conditions including mood and anxiety disorders.",
		Keywords:    []string{"mental", "depression", "anxiety", "stress", "mood", "psychiatric"},
	},
	"emergency medicine": {
		Name:        "Emergency Medicine",
		Description: "Immediate care of acute, life-threatening conditions.",
		Keywords:    []string{"emergency", "urgent", "trauma", "accident", "critical"},
	},
	"internal medicine": {
		Name:        "Internal Medicine",
		Description: "Comprehensive care of adult medical conditions.",
		Keywords:    []string{"general", "internal", "primary care", "chronic", "medical"},
	},
	"family medicine": {
		Name:        "Family Medicine",
		Description: "Primary and preventive care across all ages.",
		Keywords:    []string{"family", "primary", "general practice", "preventive"},
	},
	"rheumatology": {
		Name:        "Rheumatology",
		Description: "Autoimmune and inflammatory joint conditions.",
		Keywords:    []string{"arthritis", "autoimmune", "joint inflammation", "lupus"},
	},
	"ent": {
		Name:        "ENT",
		Description: "Conditions of the ear, nose, throat, and sinuses.",
		Keywords:    []string{"ear", "nose", "throat", "sinus", "hearing", "voice"},
	},
	"ophthalmology": {
		Name:        "Ophthalmology",
		Description: "Eye and vision care.",
		Keywords:    []string{"eye", "vision", "sight", "retina", "glaucoma"},
	},
}

// SpecializationInfo returns the reference record for a specialization name,
// matched case-insensitively, or a generic templated record for unknown names.
func SpecializationInfo(name string) Specialization {
	if s, ok := specializations[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s
	}
	return Specialization{
		Name:        name,
		Description: fmt.Sprintf("%s is a medical specialization. Consult a %s specialist for condition-specific care.", name, name),
	}
}
