package model_test

import (
	"strings"
	"testing"

	"github.com/jasonknight/space-mmo-sub002/game/entity"
	"github.com/jasonknight/space-mmo-sub002/model"
	"github.com/jasonknight/space-mmo-sub002/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_CreatesEveryTable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	for _, name := range model.TableNames() {
		assert.True(t, db.Migrator().HasTable(name), "missing table %s", name)
	}
}

func TestMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	p := &model.PlayerRow{FullName: "Ada Lovelace", WhatWeCallYou: "ada", YearOfBirth: 1815}
	require.NoError(t, db.Create(p).Error)
	assert.Greater(t, p.ID, int64(0))

	stack := int64(10)
	it := &model.ItemRow{InternalName: "ore", ItemType: "RAWMATERIAL", MaxStackSize: &stack}
	require.NoError(t, db.Table(model.TableMobileItems).Create(it).Error)

	var found model.ItemRow
	require.NoError(t, db.Table(model.TableMobileItems).Where("id = ?", it.ID).Take(&found).Error)
	assert.Equal(t, "ore", found.InternalName)
	require.NotNil(t, found.MaxStackSize)
	assert.Equal(t, int64(10), *found.MaxStackSize)

	var n int64
	require.NoError(t, db.Table(model.TableItems).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSchema_CoversEveryTable(t *testing.T) {
	stmts := model.Schema("space_mmo")
	assert.Len(t, stmts, len(model.TableNames()))
	joined := strings.Join(stmts, "\n")
	for _, name := range model.TableNames() {
		assert.Contains(t, joined, "`space_mmo`.`"+name+"`")
	}
	for _, s := range stmts {
		assert.True(t, strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS"))
	}
	assert.Contains(t, model.CreateDatabase("space_mmo"), "CREATE DATABASE IF NOT EXISTS `space_mmo`")
}

func TestSchema_ChildTablesReferenceParents(t *testing.T) {
	joined := strings.Join(model.Schema("db"), "\n")
	assert.Contains(t, joined, "FOREIGN KEY (attribute_id) REFERENCES `db`.`attributes`(id)")
	assert.Contains(t, joined, "FOREIGN KEY (item_blueprint_id) REFERENCES `db`.`item_blueprints`(id)")
	assert.Contains(t, joined, "FOREIGN KEY (inventory_id) REFERENCES `db`.`inventories`(id)")
	assert.Contains(t, joined, "FOREIGN KEY (attribute_id) REFERENCES `db`.`mobile_item_attributes`(id)")
}

func TestTablesFor(t *testing.T) {
	ts, err := model.TablesFor(entity.BackingMobileItems)
	require.NoError(t, err)
	assert.Equal(t, model.TableMobileItems, ts.Items)
	assert.Equal(t, model.TableMobileItemAttributeOwners, ts.Attributes.Owners)

	_, err = model.TablesFor("NOPE")
	assert.Error(t, err)
}
