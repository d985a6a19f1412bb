package effectmodel

import "errors"

type EffectEnum string

const (
	EffectRegistry EffectEnum = "unidir_go_effect_enum_registry"
)

var ErrNoEffectHandler = errors.New("no effect handler registered for this effect")

type RegistryConfig struct {
	NumShards int // default: 1
}

func NewRegistryConfig(numShards int) RegistryConfig {
	if numShards <= 0 {
		numShards = 1
	}
	return RegistryConfig{
		NumShards: numShards,
	}
}

type Partitionable interface {
	PartitionKey() string
}
