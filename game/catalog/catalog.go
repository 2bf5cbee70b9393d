// Package catalog builds the process-local registry of refined and raw
// materials and their recipes.
package catalog

import (
	"fmt"

	"github.com/jasonknight/space-mmo-sub002/game/entity"
)

// DefaultIDBase seeds the item, attribute and blueprint counters.
const DefaultIDBase int64 = 1000

// DefaultRefinedStackSize is the stack cap of refined materials.
const DefaultRefinedStackSize int64 = 100

// Material maps a refined material to the raw materials it is refined from.
type Material struct {
	Name    string
	Sources []string
}

// DefaultMaterials is the declarative material table loaded at startup.
var DefaultMaterials = []Material{
	{Name: "iron", Sources: []string{"hematite", "magnetite", "limonite"}},
	{Name: "carbon", Sources: []string{"coal", "graphite"}},
	{Name: "copper", Sources: []string{"chalcopyrite", "malachite"}},
	{Name: "aluminum", Sources: []string{"bauxite"}},
	{Name: "silicon", Sources: []string{"quartz", "silica_sand"}},
	{Name: "titanium", Sources: []string{"ilmenite", "rutile"}},
}

// Steel recipe constants.
const (
	SteelName        = "steel"
	SteelBakeTimeMs  = 3000
	SteelIronRatio   = 0.9
	SteelCarbonRatio = 0.10
	SteelVolume      = 3.0
)

// Options tunes Build. Zero values fall back to the defaults.
type Options struct {
	RefinedStackSize int64
	IDBase           int64
}

// Catalog is an immutable-after-build registry of items.
type Catalog struct {
	items  []*entity.Item
	byName map[string]*entity.Item
	byID   map[int64]*entity.Item
	stack  int64

	nextItem      int64
	nextAttr      int64
	nextBlueprint int64
}

// Build assembles the catalog from materials. Ids are assigned from
// process-local counters, so equal inputs give equal catalogs.
func Build(materials []Material, opts Options) (*Catalog, error) {
	if opts.RefinedStackSize <= 0 {
		opts.RefinedStackSize = DefaultRefinedStackSize
	}
	if opts.IDBase <= 0 {
		opts.IDBase = DefaultIDBase
	}
	c := &Catalog{
		byName:        make(map[string]*entity.Item),
		byID:          make(map[int64]*entity.Item),
		stack:         opts.RefinedStackSize,
		nextItem:      opts.IDBase,
		nextAttr:      opts.IDBase,
		nextBlueprint: opts.IDBase,
	}

	for _, m := range materials {
		if _, dup := c.byName[m.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate material %q", m.Name)
		}
		bp := c.newBlueprint(0)
		for _, src := range m.Sources {
			raw, ok := c.byName[src]
			if !ok {
				raw = c.newItem(src, entity.ItemRawMaterial, &opts.RefinedStackSize, 0.5)
				c.register(raw)
			}
			bp.Components[*raw.ID] = &entity.ItemBlueprintComponent{ItemID: *raw.ID, Ratio: 1.0}
		}
		refined := c.newItem(m.Name, entity.ItemRefinedMaterial, &opts.RefinedStackSize, 1.0)
		refined.Blueprint = bp
		c.register(refined)
	}

	if err := c.addSteel(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustBuild is Build for static tables known to be valid.
func MustBuild(materials []Material, opts Options) *Catalog {
	c, err := Build(materials, opts)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) addSteel() error {
	iron, err := c.FindItemByName("iron")
	if err != nil {
		return fmt.Errorf("catalog: steel recipe: %w", err)
	}
	carbon, err := c.FindItemByName("carbon")
	if err != nil {
		return fmt.Errorf("catalog: steel recipe: %w", err)
	}
	steel := c.newItem(SteelName, entity.ItemRefinedMaterial, &c.stack, 1.0)
	steel.Attributes[entity.AttrVolume].Value = entity.DoubleValue(SteelVolume)
	bp := c.newBlueprint(SteelBakeTimeMs)
	bp.Components[*iron.ID] = &entity.ItemBlueprintComponent{ItemID: *iron.ID, Ratio: SteelIronRatio}
	bp.Components[*carbon.ID] = &entity.ItemBlueprintComponent{ItemID: *carbon.ID, Ratio: SteelCarbonRatio}
	steel.Blueprint = bp
	c.register(steel)
	return nil
}

func (c *Catalog) newItem(name string, typ entity.ItemType, stack *int64, purity float64) *entity.Item {
	id := c.nextItem
	c.nextItem++
	maxStack := *stack
	it := &entity.Item{
		ID:           &id,
		InternalName: name,
		MaxStackSize: &maxStack,
		ItemType:     typ,
		Attributes:   make(map[entity.AttributeType]*entity.Attribute, 3),
	}
	c.addAttr(it, entity.AttrQuantity, "quantity", 1.0)
	c.addAttr(it, entity.AttrPurity, "purity", purity)
	c.addAttr(it, entity.AttrVolume, "volume", 1.0)
	return it
}

func (c *Catalog) addAttr(it *entity.Item, typ entity.AttributeType, name string, v float64) {
	id := c.nextAttr
	c.nextAttr++
	it.Attributes[typ] = &entity.Attribute{
		ID:            &id,
		InternalName:  name,
		Visible:       true,
		AttributeType: typ,
		Value:         entity.DoubleValue(v),
		Owner:         entity.ItemOwner(*it.ID),
	}
}

func (c *Catalog) newBlueprint(bakeMs int64) *entity.ItemBlueprint {
	id := c.nextBlueprint
	c.nextBlueprint++
	return &entity.ItemBlueprint{
		ID:         &id,
		BakeTimeMs: bakeMs,
		Components: make(map[int64]*entity.ItemBlueprintComponent),
	}
}

func (c *Catalog) register(it *entity.Item) {
	c.items = append(c.items, it)
	c.byName[it.InternalName] = it
	c.byID[*it.ID] = it
}

// FindItemByName returns a copy of the unique item called name.
func (c *Catalog) FindItemByName(name string) (*entity.Item, error) {
	it, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("catalog: no item named %q", name)
	}
	return it.Clone(), nil
}

// FindItemByID returns a copy of the item with the given catalog id.
func (c *Catalog) FindItemByID(id int64) (*entity.Item, error) {
	it, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("catalog: no item with id %d", id)
	}
	return it.Clone(), nil
}

// Items returns copies of every item in registration order. Raw materials
// always precede the refined items that use them.
func (c *Catalog) Items() []*entity.Item {
	out := make([]*entity.Item, len(c.items))
	for i, it := range c.items {
		out[i] = it.Clone()
	}
	return out
}

// Len is the number of items.
func (c *Catalog) Len() int { return len(c.items) }
