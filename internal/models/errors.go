package models

import "errors"

var (
	ErrIncompleteProfile    = errors.New("incomplete profile: gender, height, weight, age and activity level are required")
	ErrInvalidGender        = errors.New("invalid gender")
	ErrInvalidActivityLevel = errors.New("invalid activity level")
	ErrNoCandidateFoods     = errors.New("no suitable candidate foods found")
	ErrGenerationIncomplete = errors.New("meal plan generation produced no usable plan")
	ErrNotFound             = errors.New("not found")
	ErrUpstream             = errors.New("upstream provider failure")
)
