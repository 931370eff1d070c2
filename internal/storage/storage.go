package storage

import "xykpool/internal/model"

// Storage defines a sink for applied-operation events and rejects.
type Storage interface {
	PutEventBatch(events []model.EventRecord) error
	PutRejectBatch(rejects []model.RejectRecord) error
}
