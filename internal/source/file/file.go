// Package file reads snapshots from a JSON export of the dashboard collections.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/pkg/metrics"
	"github.com/bissquit/asset-desk/internal/source"
)

// export mirrors the top-level layout of an export file. Documents stay raw so
// that one bad document does not prevent the rest from loading.
type export struct {
	Users     []json.RawMessage `json:"users"`
	Equipment []json.RawMessage `json:"equipment"`
	Incidents []json.RawMessage `json:"incidents"`
}

// Reader loads the export file on every Snapshot call.
type Reader struct {
	path string
}

// NewReader creates a reader for the export at path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Snapshot reads and decodes the export file.
func (r *Reader) Snapshot(_ context.Context) (*source.Snapshot, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode export %s: %w", r.path, err)
	}
	return snap, nil
}

// Decode parses an export document. Documents that fail to decode are logged,
// counted and skipped.
func Decode(data []byte) (*source.Snapshot, error) {
	var exp export
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, err
	}

	snap := &source.Snapshot{
		Users:     decodeAll(source.CollectionUsers, exp.Users, source.UserDoc.ToUser),
		Equipment: decodeAll(source.CollectionEquipment, exp.Equipment, source.EquipmentDoc.ToEquipment),
		Incidents: decodeAll(source.CollectionIncidents, exp.Incidents, source.IncidentDoc.ToIncident),
		ReadAt:    time.Now().UTC(),
	}
	return snap, nil
}

func decodeAll[D any, T any](collection string, raw []json.RawMessage, convert func(D, string) (*T, error)) []*T {
	out := make([]*T, 0, len(raw))
	for i, msg := range raw {
		var doc D
		if err := json.Unmarshal(msg, &doc); err != nil {
			skip(collection, i, err)
			continue
		}
		rec, err := convert(doc, "")
		if err != nil {
			skip(collection, i, err)
			continue
		}
		out = append(out, rec)
	}
	metrics.SourceDocuments.WithLabelValues(collection).Set(float64(len(out)))
	return out
}

func skip(collection string, index int, err error) {
	metrics.SourceDecodeErrors.WithLabelValues(collection).Inc()
	slog.Warn("skipping undecodable document",
		"collection", collection,
		"index", index,
		"error", err,
	)
}

// Encode writes a snapshot in export layout. Timestamps are RFC 3339 in UTC.
func Encode(snap *source.Snapshot) ([]byte, error) {
	type out struct {
		Users     []source.UserDoc      `json:"users"`
		Equipment []source.EquipmentDoc `json:"equipment"`
		Incidents []source.IncidentDoc  `json:"incidents"`
	}
	doc := out{
		Users:     make([]source.UserDoc, 0, len(snap.Users)),
		Equipment: make([]source.EquipmentDoc, 0, len(snap.Equipment)),
		Incidents: make([]source.IncidentDoc, 0, len(snap.Incidents)),
	}
	for _, u := range snap.Users {
		doc.Users = append(doc.Users, userDoc(u))
	}
	for _, e := range snap.Equipment {
		doc.Equipment = append(doc.Equipment, equipmentDoc(e))
	}
	for _, inc := range snap.Incidents {
		doc.Incidents = append(doc.Incidents, incidentDoc(inc))
	}
	return json.MarshalIndent(doc, "", "  ")
}

func userDoc(u *domain.User) source.UserDoc {
	d := source.UserDoc{ID: u.ID, Username: u.Username, Role: string(u.Role)}
	if u.Group != nil {
		d.Group = string(*u.Group)
	}
	return d
}

func equipmentDoc(e *domain.Equipment) source.EquipmentDoc {
	return source.EquipmentDoc{
		ID:             e.ID,
		SerialNumber:   e.SerialNumber,
		Model:          e.Model,
		Manufacturer:   e.Manufacturer,
		Type:           string(e.Type),
		PurchaseDate:   e.PurchaseDate,
		ResponseTime:   e.ResponseTime,
		ResolutionTime: e.ResolutionTime,
		Group:          string(e.Group),
	}
}

func incidentDoc(inc *domain.Incident) source.IncidentDoc {
	d := source.IncidentDoc{
		ID:          inc.ID,
		EquipmentID: inc.EquipmentID,
		Title:       inc.Title,
		Description: inc.Description,
		Status:      string(inc.Status),
		History:     make([]source.HistoryDoc, 0, len(inc.History)),
	}
	for _, h := range inc.History {
		d.History = append(d.History, source.HistoryDoc{
			Status:    string(h.Status),
			Timestamp: h.Timestamp.UTC().Format(time.RFC3339Nano),
			Comment:   h.Comment,
		})
	}
	for _, m := range inc.MaterialsUsed {
		d.MaterialsUsed = append(d.MaterialsUsed, source.MaterialDoc{
			ID:         m.ID,
			Name:       m.Name,
			PartNumber: m.PartNumber,
			Quantity:   m.Quantity,
		})
	}
	if inc.AssignedTo != nil {
		d.AssignedTo = *inc.AssignedTo
	}
	return d
}
