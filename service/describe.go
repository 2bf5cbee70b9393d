package service

import (
	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/result"
)

// DescribeRequest asks for service metadata. It has no fields.
type DescribeRequest struct{}

// MethodDescription documents one rpc method.
type MethodDescription struct {
	Name        string `msgpack:"name" json:"name"`
	Description string `msgpack:"description" json:"description"`
	Request     string `msgpack:"request" json:"request"`
	Response    string `msgpack:"response" json:"response"`
}

// ServiceDescription is what describe returns.
type ServiceDescription struct {
	Name         string              `msgpack:"name" json:"name"`
	Version      string              `msgpack:"version" json:"version"`
	Methods      []MethodDescription `msgpack:"methods" json:"methods"`
	Enumerations map[string][]string `msgpack:"enumerations" json:"enumerations"`
}

func enumerations() map[string][]string {
	codes := make([]string, 0, len(result.ErrorCodes()))
	for _, c := range result.ErrorCodes() {
		codes = append(codes, string(c))
	}
	return map[string][]string{
		"item_type":      entity.ItemTypeValues(),
		"mobile_type":    entity.MobileTypeValues(),
		"attribute_type": entity.AttributeTypeValues(),
		"owner_kind":     entity.OwnerKindValues(),
		"backing_table":  entity.BackingTableValues(),
		"status":         {string(result.StatusSuccess), string(result.StatusFailure)},
		"error_code":     codes,
	}
}

// DescribeItemService returns the item service metadata.
func DescribeItemService() *ServiceDescription {
	return &ServiceDescription{
		Name:    "ItemService",
		Version: Version,
		Methods: []MethodDescription{
			{MethodItemCreate, "Create an item with its blueprint and attributes.", "create_item", "create_item"},
			{MethodItemLoad, "Load an item by id, served from cache when possible.", "load_item", "load_item"},
			{MethodItemSave, "Create or fully replace an item.", "save_item", "save_item"},
			{MethodItemDestroy, "Delete an item, its attributes and its blueprint.", "destroy_item", "destroy_item"},
			{MethodItemList, "Page through items, optionally filtered by internal name.", "list_items", "list_items"},
			{MethodItemDescribe, "Describe this service.", "describe", "describe"},
		},
		Enumerations: enumerations(),
	}
}
