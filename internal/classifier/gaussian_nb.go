package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"agrointel-service/internal/model"
)

// NumFeatures is the fixed feature order the model was trained on:
// N, P, K, temperature, humidity, ph, rainfall.
const NumFeatures = 7

// GaussianNB is a pre-trained Gaussian naive Bayes classifier. The
// artifact is a parameter dump exported from the training pipeline;
// this code only consumes it, it never trains.
type GaussianNB struct {
	ClassLabels []string    `json:"classes"`
	Priors      []float64   `json:"class_prior"`
	Means       [][]float64 `json:"theta"`
	Variances   [][]float64 `json:"variance"`
}

// Load reads and validates the classifier artifact. Any failure wraps
// ErrModelUnavailable; callers treat that as fatal at startup.
func Load(path string) (*GaussianNB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading artifact %s: %v", model.ErrModelUnavailable, path, err)
	}

	var m GaussianNB
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parsing artifact %s: %v", model.ErrModelUnavailable, path, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%w: artifact %s: %v", model.ErrModelUnavailable, path, err)
	}
	return &m, nil
}

func (m *GaussianNB) validate() error {
	n := len(m.ClassLabels)
	if n == 0 {
		return fmt.Errorf("no classes")
	}
	if len(m.Priors) != n || len(m.Means) != n || len(m.Variances) != n {
		return fmt.Errorf("parameter shapes do not match %d classes", n)
	}
	for i := range m.Means {
		if len(m.Means[i]) != NumFeatures || len(m.Variances[i]) != NumFeatures {
			return fmt.Errorf("class %q does not have %d feature parameters", m.ClassLabels[i], NumFeatures)
		}
		for _, v := range m.Variances[i] {
			if v <= 0 {
				return fmt.Errorf("class %q has a non-positive variance", m.ClassLabels[i])
			}
		}
	}
	return nil
}

// Classes returns the fixed label set
func (m *GaussianNB) Classes() []string {
	return m.ClassLabels
}

// Predict returns the most likely class label for the feature vector
func (m *GaussianNB) Predict(features []float64) (string, error) {
	probs, err := m.PredictProba(features)
	if err != nil {
		return "", err
	}

	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return m.ClassLabels[best], nil
}

// PredictProba returns the class probability vector for the feature
// vector, in the order of Classes().
func (m *GaussianNB) PredictProba(features []float64) ([]float64, error) {
	if len(features) != NumFeatures {
		return nil, fmt.Errorf("expected %d features, got %d", NumFeatures, len(features))
	}

	// Joint log likelihood per class, then a log-sum-exp normalization
	// to keep the exponentiation numerically stable.
	jll := make([]float64, len(m.ClassLabels))
	for c := range m.ClassLabels {
		ll := math.Log(m.Priors[c])
		for i, x := range features {
			variance := m.Variances[c][i]
			diff := x - m.Means[c][i]
			ll += -0.5*math.Log(2*math.Pi*variance) - diff*diff/(2*variance)
		}
		jll[c] = ll
	}

	max := jll[0]
	for _, v := range jll[1:] {
		if v > max {
			max = v
		}
	}

	var total float64
	probs := make([]float64, len(jll))
	for i, v := range jll {
		probs[i] = math.Exp(v - max)
		total += probs[i]
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs, nil
}
