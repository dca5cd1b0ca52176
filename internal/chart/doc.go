// Package chart renders projected measurement series as PNG line charts.
package chart
