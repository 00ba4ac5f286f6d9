package inmem

import (
	"errors"
	"sort"

	consul "github.com/hashicorp/consul/api"
)

type Client interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	List(prefix string) (consul.KVPairs, error)
	DeleteTree(prefix string) error
}

type client struct {
	consul *consul.Client
}

func NewClient(c *consul.Client) Client {
	return &client{c}
}

func (c *client) Get(key string) ([]byte, error) {
	kv, _, err := c.consul.KV().Get(key, nil)
	if err != nil {
		return nil, err
	}

	if kv == nil {
		return nil, ErrKeyNotFound
	}

	return kv.Value, nil
}

func (c *client) Put(key string, value []byte) error {
	p := &consul.KVPair{Key: key, Value: value}
	_, err := c.consul.KV().Put(p, nil)

	return err
}

func (c *client) Delete(key string) error {
	_, err := c.consul.KV().Delete(key, nil)

	return err
}

// List returns the pairs under prefix in creation order.
func (c *client) List(prefix string) (consul.KVPairs, error) {
	pairs, _, err := c.consul.KV().List(prefix, nil)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].CreateIndex < pairs[j].CreateIndex
	})

	return pairs, nil
}

func (c *client) DeleteTree(prefix string) error {
	_, err := c.consul.KV().DeleteTree(prefix, nil)

	return err
}

var ErrKeyNotFound = errors.New("key not found")
