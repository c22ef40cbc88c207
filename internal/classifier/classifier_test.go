package classifier

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"agrointel-service/internal/model"

	"github.com/stretchr/testify/require"
)

// writeArtifact dumps a model parameter set to a temp file
func writeArtifact(t *testing.T, m *GaussianNB) string {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "naive_bayes.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// testModel builds a small three-class model with well-separated means
// so predictions are unambiguous.
func testModel() *GaussianNB {
	return &GaussianNB{
		ClassLabels: []string{"rice", "maize", "coffee"},
		Priors:      []float64{0.4, 0.3, 0.3},
		Means: [][]float64{
			{80, 45, 40, 24, 82, 6.4, 230},
			{70, 50, 20, 22, 65, 6.2, 85},
			{100, 28, 30, 25, 58, 6.8, 160},
		},
		Variances: [][]float64{
			{100, 25, 25, 4, 16, 0.25, 400},
			{100, 25, 25, 4, 16, 0.25, 400},
			{100, 25, 25, 4, 16, 0.25, 400},
		},
	}
}

func TestLoadValidArtifact(t *testing.T) {
	path := writeArtifact(t, testModel())

	m, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"rice", "maize", "coffee"}, m.Classes())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	require.True(t, errors.Is(err, model.ErrModelUnavailable))
}

func TestLoadRejectsShapeMismatch(t *testing.T) {
	bad := testModel()
	bad.Priors = bad.Priors[:2]

	_, err := Load(writeArtifact(t, bad))
	require.Error(t, err)
	require.True(t, errors.Is(err, model.ErrModelUnavailable))
}

func TestLoadRejectsNonPositiveVariance(t *testing.T) {
	bad := testModel()
	bad.Variances[1][3] = 0

	_, err := Load(writeArtifact(t, bad))
	require.Error(t, err)
	require.True(t, errors.Is(err, model.ErrModelUnavailable))
}

func TestPredictPicksNearestClass(t *testing.T) {
	m := testModel()

	// Feature vector at the rice mean
	label, err := m.Predict([]float64{80, 45, 40, 24, 82, 6.4, 230})
	require.NoError(t, err)
	require.Equal(t, "rice", label)

	label, err = m.Predict([]float64{100, 28, 30, 25, 58, 6.8, 160})
	require.NoError(t, err)
	require.Equal(t, "coffee", label)
}

func TestPredictProbaSumsToOne(t *testing.T) {
	m := testModel()

	probs, err := m.PredictProba([]float64{75, 47, 30, 23, 70, 6.3, 150})
	require.NoError(t, err)
	require.Len(t, probs, 3)

	var total float64
	for _, p := range probs {
		require.GreaterOrEqual(t, p, 0.0)
		total += p
	}
	require.InDelta(t, 1.0, total, 1e-9)
}

func TestPredictRejectsWrongFeatureCount(t *testing.T) {
	m := testModel()

	_, err := m.Predict([]float64{1, 2, 3})
	require.Error(t, err)
}

func TestClassifyShapesDistribution(t *testing.T) {
	m := testModel()

	p, err := m.Classify([]float64{80, 45, 40, 24, 82, 6.4, 230})
	require.NoError(t, err)

	require.Equal(t, "rice", p.Crop)
	require.Equal(t, "Arroz", p.CropDisplay)
	require.Greater(t, p.Confidence, 50.0)

	// Three classes, so the top list is capped at three
	require.Len(t, p.Top, 3)
	require.Equal(t, "rice", p.Top[0].Crop)

	// Ordered by probability, percentages rounded to two decimals
	for i := 1; i < len(p.Top); i++ {
		require.GreaterOrEqual(t, p.Top[i-1].ProbabilityPct, p.Top[i].ProbabilityPct)
	}
}

func TestDisplayNameFallsBackToLabel(t *testing.T) {
	require.Equal(t, "Café", DisplayName("coffee"))
	require.Equal(t, "unknown-crop", DisplayName("unknown-crop"))
}
