package classifier

import (
	"fmt"

	"github.com/sharedcode/healthai"
)

// Names lists the algorithms in the standard ensemble, in registry order.
var Names = []string{"random_forest", "svm", "neural_network", "naive_bayes"}

// New creates an unfitted classifier by algorithm name. The seed drives
// every stochastic choice the algorithm makes, so equal seeds reproduce
// equal models.
func New(name string, seed int64) (healthai.Classifier, error) {
	switch name {
	case "random_forest":
		return NewRandomForest(seed), nil
	case "svm":
		return NewSVM(seed), nil
	case "neural_network":
		return NewMLP(seed), nil
	case "naive_bayes":
		return NewGaussianNB(), nil
	}
	return nil, fmt.Errorf("unknown classifier %q", name)
}

// Defaults returns a fresh unfitted instance of every standard algorithm,
// keyed by name.
func Defaults(seed int64) map[string]healthai.Classifier {
	out := make(map[string]healthai.Classifier, len(Names))
	for _, name := range Names {
		c, _ := New(name, seed)
		out[name] = c
	}
	return out
}
