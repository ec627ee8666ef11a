package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/annel0/tome/internal/catalog"
	"github.com/annel0/tome/internal/tile"
)

func main() {
	var (
		path       = flag.String("catalog", "assets/catalog/library.yaml", "Файл каталога (YAML или JSON)")
		command    = flag.String("cmd", "validate", "Команда: validate, list, faces, push, pull")
		key        = flag.String("key", "", "Ключ определения для faces (пусто - все)")
		mongoURI   = flag.String("mongo", "mongodb://localhost:27017", "URI MongoDB для push/pull")
		database   = flag.String("db", "tome", "База MongoDB")
		collection = flag.String("collection", "tiles", "Коллекция MongoDB")
		out        = flag.String("out", "", "Файл для pull (пусто - stdout)")
	)
	flag.Parse()

	mongoCfg := catalog.MongoConfig{URI: *mongoURI, Database: *database, Collection: *collection}

	var err error
	switch *command {
	case "validate":
		err = validate(os.Stdout, *path)
	case "list":
		err = withCatalog(*path, func(cat *tile.Catalog) error { return list(os.Stdout, cat) })
	case "faces":
		err = withCatalog(*path, func(cat *tile.Catalog) error { return faces(os.Stdout, cat, *key) })
	case "push":
		err = push(*path, mongoCfg)
	case "pull":
		err = pull(mongoCfg, *out)
	default:
		fmt.Printf("❌ Неизвестная команда: %s\n", *command)
		fmt.Println("Доступные команды: validate, list, faces, push, pull")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %s: %v", *command, err)
	}
}

func withCatalog(path string, fn func(*tile.Catalog) error) error {
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}
	return fn(cat)
}

func validate(w io.Writer, path string) error {
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}

	spawnable := 0
	types := map[tile.TypeRef]struct{}{}
	for _, def := range cat.Definitions() {
		types[def.Type] = struct{}{}
		if def.CanSpawnHere {
			spawnable++
		}
	}

	fmt.Fprintf(w, "✅ %s: %d определений, %d типов\n", path, cat.Len(), len(types))
	if spawnable == 0 {
		fmt.Fprintln(w, "⚠️  Нет определений с can_spawn_here: начальная ячейка всегда будет пустой")
	}
	return nil
}

func list(w io.Writer, cat *tile.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTYPE\tMIRROR\tSPAWN\tBLACKLIST")
	for _, def := range cat.Definitions() {
		bl := make([]string, 0, len(def.Blacklist))
		for t := range def.Blacklist {
			bl = append(bl, string(t))
		}
		sort.Strings(bl)
		fmt.Fprintf(tw, "%s\t%s\t%v\t%v\t%s\n", def.Key, def.Type, def.MirrorAllowed, def.CanSpawnHere, strings.Join(bl, ","))
	}
	return tw.Flush()
}

// faces печатает мировые соединения граней для каждого поворота и зеркала
func faces(w io.Writer, cat *tile.Catalog, key string) error {
	defs := cat.Definitions()
	if key != "" {
		def, ok := cat.Lookup(key)
		if !ok {
			return fmt.Errorf("определение %q не найдено", key)
		}
		defs = []*tile.Definition{def}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := []string{"KEY", "ROT", "MIRROR"}
	for _, d := range tile.AllDirections() {
		header = append(header, strings.ToUpper(d.String()))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, def := range defs {
		for _, scale := range tile.MirrorVariants(def.MirrorAllowed) {
			for _, r := range tile.AllRotations() {
				conns := tile.WorldConnections(def, r, scale)
				row := []string{def.Key, r.String(), fmt.Sprint(tile.IsMirrored(scale))}
				for _, d := range tile.AllDirections() {
					row = append(row, conns[d].String())
				}
				fmt.Fprintln(tw, strings.Join(row, "\t"))
			}
		}
	}
	return tw.Flush()
}

func push(path string, cfg catalog.MongoConfig) error {
	doc, err := catalog.ReadFile(path)
	if err != nil {
		return err
	}
	// Сборка проверяет ссылки до записи в базу
	if _, err := catalog.Build(doc); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	src, err := catalog.NewMongoSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := src.Replace(ctx, doc); err != nil {
		return err
	}
	fmt.Printf("✅ %d определений записано в %s.%s\n", len(doc.Tiles), cfg.Database, cfg.Collection)
	return nil
}

func pull(cfg catalog.MongoConfig, out string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	src, err := catalog.NewMongoSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	cat, err := src.Load(ctx)
	if err != nil {
		return err
	}
	doc := catalog.Export(cat)

	if out == "" {
		return list(os.Stdout, cat)
	}
	if err := catalog.WriteYAML(out, doc); err != nil {
		return err
	}
	fmt.Printf("✅ %d определений сохранено в %s\n", len(doc.Tiles), out)
	return nil
}
