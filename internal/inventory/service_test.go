package inventory

import (
	"context"
	"testing"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	equipment map[string]*domain.Equipment
	incidents map[string]int
	updated   *domain.Equipment
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		equipment: make(map[string]*domain.Equipment),
		incidents: make(map[string]int),
	}
}

func (m *mockRepository) CreateEquipment(_ context.Context, e *domain.Equipment) error {
	for _, existing := range m.equipment {
		if existing.SerialNumber == e.SerialNumber {
			return ErrSerialNumberTaken
		}
	}
	m.equipment[e.ID] = e
	return nil
}

func (m *mockRepository) GetEquipmentByID(_ context.Context, id string) (*domain.Equipment, error) {
	if e, ok := m.equipment[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, ErrEquipmentNotFound
}

func (m *mockRepository) ListEquipment(_ context.Context, _ Filter) ([]*domain.Equipment, error) {
	result := make([]*domain.Equipment, 0, len(m.equipment))
	for _, e := range m.equipment {
		result = append(result, e)
	}
	return result, nil
}

func (m *mockRepository) UpdateEquipment(_ context.Context, e *domain.Equipment) error {
	m.updated = e
	m.equipment[e.ID] = e
	return nil
}

func (m *mockRepository) DeleteEquipment(_ context.Context, id string) error {
	delete(m.equipment, id)
	return nil
}

func (m *mockRepository) CountIncidents(_ context.Context, equipmentID string) (int, error) {
	return m.incidents[equipmentID], nil
}

func validInput() CreateEquipmentInput {
	return CreateEquipmentInput{
		DetailsInput: DetailsInput{
			SerialNumber: "SN-1001",
			Model:        "Latitude 5440",
			Manufacturer: "Dell",
			Type:         domain.EquipmentTypeLaptop,
			PurchaseDate: "2023-04-12",
			Group:        domain.GroupHardware,
		},
		ResponseTime:   domain.SLAFourHours,
		ResolutionTime: domain.SLANextDay,
	}
}

func TestCreateEquipment_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateEquipmentInput)
		wantErr error
	}{
		{name: "valid", mutate: func(*CreateEquipmentInput) {}},
		{name: "no purchase date", mutate: func(in *CreateEquipmentInput) { in.PurchaseDate = "" }},
		{
			name:    "blank serial",
			mutate:  func(in *CreateEquipmentInput) { in.SerialNumber = "  " },
			wantErr: ErrEmptySerialNumber,
		},
		{
			name:    "unknown type",
			mutate:  func(in *CreateEquipmentInput) { in.Type = "Tablet" },
			wantErr: ErrInvalidType,
		},
		{
			name:    "unknown group",
			mutate:  func(in *CreateEquipmentInput) { in.Group = "Redes" },
			wantErr: ErrInvalidGroup,
		},
		{
			name:    "malformed purchase date",
			mutate:  func(in *CreateEquipmentInput) { in.PurchaseDate = "12/04/2023" },
			wantErr: ErrInvalidPurchaseDate,
		},
		{
			name:    "unknown response category",
			mutate:  func(in *CreateEquipmentInput) { in.ResponseTime = "24horas" },
			wantErr: ErrInvalidResponseTime,
		},
		{
			name:    "one hour is not a resolution category",
			mutate:  func(in *CreateEquipmentInput) { in.ResolutionTime = domain.SLAOneHour },
			wantErr: ErrInvalidResolutionTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			service := NewService(repo)

			input := validInput()
			tt.mutate(&input)

			equipment, err := service.CreateEquipment(context.Background(), input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, repo.equipment)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, equipment.ID)
			assert.Equal(t, input.ResponseTime, equipment.ResponseTime)
			assert.Equal(t, input.ResolutionTime, equipment.ResolutionTime)
		})
	}
}

func TestCreateEquipment_DuplicateSerial(t *testing.T) {
	service := NewService(newMockRepository())

	_, err := service.CreateEquipment(context.Background(), validInput())
	require.NoError(t, err)

	_, err = service.CreateEquipment(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrSerialNumberTaken)
}

func TestUpdateEquipment_KeepsSLACategories(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	created, err := service.CreateEquipment(context.Background(), validInput())
	require.NoError(t, err)

	details := validInput().DetailsInput
	details.Model = "Latitude 7450"
	details.Group = domain.GroupSoftware

	updated, err := service.UpdateEquipment(context.Background(), created.ID, details)
	require.NoError(t, err)

	assert.Equal(t, "Latitude 7450", repo.updated.Model)
	assert.Equal(t, domain.GroupSoftware, repo.updated.Group)
	assert.Equal(t, domain.SLAFourHours, updated.ResponseTime)
	assert.Equal(t, domain.SLANextDay, updated.ResolutionTime)
}

func TestUpdateEquipment_NotFound(t *testing.T) {
	service := NewService(newMockRepository())

	_, err := service.UpdateEquipment(context.Background(), "missing", validInput().DetailsInput)
	assert.ErrorIs(t, err, ErrEquipmentNotFound)
}

func TestDeleteEquipment(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	created, err := service.CreateEquipment(context.Background(), validInput())
	require.NoError(t, err)

	repo.incidents[created.ID] = 2
	err = service.DeleteEquipment(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrEquipmentInUse)
	assert.Contains(t, repo.equipment, created.ID)

	repo.incidents[created.ID] = 0
	require.NoError(t, service.DeleteEquipment(context.Background(), created.ID))
	assert.NotContains(t, repo.equipment, created.ID)

	assert.ErrorIs(t, service.DeleteEquipment(context.Background(), created.ID), ErrEquipmentNotFound)
}
