// Package metrics defines the Prometheus metrics exposed by the media
// converter: conversion counts and durations broken down by unit and
// branch, probe outcomes, and HTTP request metrics recorded by the
// middleware.
package metrics
