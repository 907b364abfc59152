package property

import (
	"fmt"
	"time"
)

// GenerateListingID builds the permanent listing code assigned at creation:
// type letter, creation date as YYMMDD, zero-padded owner id and a sequential
// counter. Example: C240501_00007_003.
func GenerateListingID(typeID PropertyType, createdOn time.Time, ownerID, sequence int64) string {
	var code string

	switch typeID {
	case TypeCondo:
		code = "C"
	case TypeOffice:
		code = "O"
	case TypeHouseAndLot:
		code = "L"
	}

	return fmt.Sprintf("%s%s_%05d_%03d", code, createdOn.Format("060102"), ownerID, sequence)
}
