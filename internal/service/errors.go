package service

import (
	"errors"

	"historicalmap/internal/repository"
)

var (
	ErrYearOutOfRange  = errors.New("year out of range")
	ErrInvalidRange    = errors.New("start year is after end year")
	ErrSourceExists    = errors.New("source already exists")
	ErrSourceNotFound  = errors.New("source not found")
	ErrPermanentSource = errors.New("the database source cannot be removed")
	ErrSaveInProgress  = errors.New("a save is already running")
	ErrNotFound        = repository.ErrNotFound
)
