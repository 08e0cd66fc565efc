package config_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/lzy/jshow/config"
)

func ExampleLoader_Load() {
	src := config.NewMapSource("static", map[string]string{config.KeyTokenSign: "abc123"})

	props, err := config.NewLoader(src).Load(context.Background())
	if err != nil {
		fmt.Println("startup aborted:", err)
		return
	}
	fmt.Println(props.TokenSign())
	fmt.Println(props)
	// Output:
	// abc123
	// Properties{tokenSign:[REDACTED]}
}

func ExampleMissingPolicy() {
	empty := config.NewMapSource("empty", nil)
	ctx := context.Background()

	_, err := config.NewLoader(empty).Load(ctx)
	fmt.Println(errors.Is(err, config.ErrKeyMissing))

	props, _ := config.NewLoader(empty, config.WithMissingPolicy(config.MissingEmpty)).Load(ctx)
	fmt.Printf("%q\n", props.TokenSign())
	// Output:
	// true
	// ""
}
