package storage

import (
	"encoding/json"
	"errors"
	"sort"

	"hpfold/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Stamp sets the current schema and codec versions on r.
func Stamp(r model.RunRecord) model.RunRecord {
	r.VersionedRecord = model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
	return r
}

func EncodeRunRecord(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRunRecord(data []byte) (model.RunRecord, error) {
	var record model.RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return record, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

func cloneRunRecord(r model.RunRecord) model.RunRecord {
	r.Final = r.Final.Clone()
	r.MinEnergyConf = r.MinEnergyConf.Clone()
	r.MaxCompactConf = r.MaxCompactConf.Clone()
	return r
}

// sortNewestFirst orders by creation time, then run id for a stable result.
func sortNewestFirst(records []model.RunRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAtUTC == records[j].CreatedAtUTC {
			return records[i].RunID > records[j].RunID
		}
		return records[i].CreatedAtUTC > records[j].CreatedAtUTC
	})
}
