// Package gemini implements the scoring.Scorer and scoring.JobParser
// interfaces using Google's Gemini API. It owns prompt assembly, the
// multimodal (PDF) payload path, response cleanup and validation, and the
// classification of API failures into retryable and fatal scoring errors.
package gemini
