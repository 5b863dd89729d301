// Package sim drives a tuning run tick by tick against a plant.
package sim
