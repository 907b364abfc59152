package property

import (
	"testing"
	"time"
)

func TestGenerateListingID(t *testing.T) {
	tests := []struct {
		name     string
		typeID   PropertyType
		created  time.Time
		ownerID  int64
		sequence int64
		want     string
	}{
		{
			name:     "condo",
			typeID:   TypeCondo,
			created:  time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
			ownerID:  7,
			sequence: 3,
			want:     "C240501_00007_003",
		},
		{
			name:     "office",
			typeID:   TypeOffice,
			created:  time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
			ownerID:  12345,
			sequence: 999,
			want:     "O251231_12345_999",
		},
		{
			name:     "house and lot",
			typeID:   TypeHouseAndLot,
			created:  time.Date(2024, 1, 9, 23, 59, 0, 0, time.UTC),
			ownerID:  1,
			sequence: 1,
			want:     "L240109_00001_001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateListingID(tt.typeID, tt.created, tt.ownerID, tt.sequence)
			if got != tt.want {
				t.Errorf("GenerateListingID() = %q, want %q", got, tt.want)
			}
		})
	}
}
