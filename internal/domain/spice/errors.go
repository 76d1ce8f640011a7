package spice

import "errors"

var (
	ErrEmptySpiceName = errors.New("spice name is required")
	ErrNoSpices       = errors.New("dish must list at least one spice")
	ErrEmptyDishName  = errors.New("dish name is required")
)
