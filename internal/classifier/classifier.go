package classifier

import (
	"math"
	"sort"

	"agrointel-service/pkg/config"
)

// topN is how many crops the prediction distribution exposes
const topN = 5

// cropDisplayNames maps model labels to the product's crop vocabulary
var cropDisplayNames = map[string]string{
	"rice":        "Arroz",
	"maize":       "Milho",
	"chickpea":    "Grão-de-bico",
	"kidneybeans": "Feijão-vermelho",
	"pigeonpeas":  "Feijão-guandu",
	"mothbeans":   "Feijão-moth",
	"mungbean":    "Feijão-mungo",
	"blackgram":   "Feijão-preto",
	"lentil":      "Lentilha",
	"pomegranate": "Romã",
	"banana":      "Banana",
	"mango":       "Manga",
	"grapes":      "Uva",
	"watermelon":  "Melancia",
	"muskmelon":   "Melão",
	"apple":       "Maçã",
	"orange":      "Laranja",
	"papaya":      "Papaia",
	"coconut":     "Coco",
	"cotton":      "Algodão",
	"jute":        "Juta",
	"coffee":      "Café",
}

// DisplayName returns the product vocabulary name for a model label,
// falling back to the label itself.
func DisplayName(label string) string {
	if name, ok := cropDisplayNames[label]; ok {
		return name
	}
	return label
}

// CropProbability is one entry of the prediction distribution
type CropProbability struct {
	Crop           string  `json:"crop"`
	Display        string  `json:"crop_display"`
	ProbabilityPct float64 `json:"probability_pct"`
}

// Prediction is the classifier output exposed over HTTP: the winning
// label, its confidence and the five most likely crops, all in percent
// rounded to two decimals.
type Prediction struct {
	Crop        string            `json:"crop"`
	CropDisplay string            `json:"crop_display"`
	Confidence  float64           `json:"confidence"`
	Top         []CropProbability `json:"top_crops"`
}

// Classify runs the model and shapes the distribution for clients
func (m *GaussianNB) Classify(features []float64) (*Prediction, error) {
	probs, err := m.PredictProba(features)
	if err != nil {
		return nil, err
	}

	indices := make([]int, len(probs))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return probs[indices[a]] > probs[indices[b]]
	})

	n := topN
	if n > len(indices) {
		n = len(indices)
	}
	top := make([]CropProbability, 0, n)
	for _, idx := range indices[:n] {
		label := m.ClassLabels[idx]
		top = append(top, CropProbability{
			Crop:           label,
			Display:        DisplayName(label),
			ProbabilityPct: roundPct(probs[idx]),
		})
	}

	winner := m.ClassLabels[indices[0]]
	return &Prediction{
		Crop:        winner,
		CropDisplay: DisplayName(winner),
		Confidence:  roundPct(probs[indices[0]]),
		Top:         top,
	}, nil
}

func roundPct(p float64) float64 {
	return math.Round(p*100*100) / 100
}

var cropModel *GaussianNB

// Initialize loads the classifier artifact once at startup. An error
// here means the process must not start serving.
func Initialize(cfg *config.ModelConfig) error {
	m, err := Load(cfg.Path)
	if err != nil {
		return err
	}
	cropModel = m
	return nil
}

// Get returns the process-wide classifier, nil when not loaded
func Get() *GaussianNB {
	return cropModel
}

// Loaded reports whether the classifier artifact is available
func Loaded() bool {
	return cropModel != nil
}
