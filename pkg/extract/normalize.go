package extract

import (
	"irisplate/pkg/docai"
	"irisplate/pkg/domain"
)

// Entity type tags recognized on equipment nameplates. Anything else coming
// back from the collaborator is ignored.
const (
	TagEquipmentName    = "Equipment_Name"
	TagInstallationDate = "Installation_date"
	TagManufacturer     = "Manufacturer"
	TagModel            = "Model"
	TagSerialNumber     = "Serial_Number"
)

// Normalize maps raw entities onto the canonical equipment record. The
// normalized text is preferred over the literal mention when present. When
// several entities carry the same tag, the later one wins. Fields with no
// matching entity keep their empty-string default.
func Normalize(entities []docai.Entity) domain.EquipmentInfo {
	var info domain.EquipmentInfo
	for _, entity := range entities {
		value := entity.NormalizedText
		if value == "" {
			value = entity.MentionText
		}
		switch entity.Type {
		case TagEquipmentName:
			info.EquipmentName = value
		case TagInstallationDate:
			info.InstallationDate = value
		case TagManufacturer:
			info.Manufacturer = value
		case TagModel:
			info.Model = value
		case TagSerialNumber:
			info.SerialNumber = value
		}
	}
	return info
}
