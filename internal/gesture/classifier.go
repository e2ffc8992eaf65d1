// Package gesture classifies hand feature vectors into gesture labels.
package gesture

import (
	"context"
	"errors"
)

// ErrNoMatch is returned when no known gesture is close enough to the input.
var ErrNoMatch = errors.New("no gesture matched")

// Classifier maps an 84-value feature vector to a gesture label.
type Classifier interface {
	Classify(ctx context.Context, features []float64) (string, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, features []float64) (string, error)

func (f ClassifierFunc) Classify(ctx context.Context, features []float64) (string, error) {
	return f(ctx, features)
}

// Fixed returns a Classifier that always answers label.
func Fixed(label string) Classifier {
	return ClassifierFunc(func(context.Context, []float64) (string, error) {
		return label, nil
	})
}
