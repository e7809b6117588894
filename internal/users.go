package internal

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/starford/techdocs/internal/apperr"
	pkgconfig "github.com/starford/techdocs/pkg/config"
)

// ListUsers returns the accounts configured in the file at path.
func ListUsers(path string) ([]UserConfig, error) {
	doc, err := pkgconfig.LoadDocument(path)
	if err != nil {
		return nil, err
	}
	seq := usersNode(doc, false)
	if seq == nil {
		return nil, nil
	}
	var users []UserConfig
	if err := seq.Decode(&users); err != nil {
		return nil, fmt.Errorf("decode auth.users: %w", err)
	}
	return users, nil
}

// AddUser appends u to auth.users in the file at path. Other content of the
// file is preserved, including ${VAR} references.
func AddUser(path string, u UserConfig) error {
	if err := u.Validate(); err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInvalidPath, err.Error())
	}
	doc, err := pkgconfig.LoadDocument(path)
	if err != nil {
		return err
	}
	seq := usersNode(doc, true)
	if seq == nil {
		return fmt.Errorf("config %s: auth.users is not a list", path)
	}
	if userIndex(seq, u.Username) >= 0 {
		return fmt.Errorf("%w: user %q already exists", apperr.ErrConflict, u.Username)
	}

	var entry yaml.Node
	if err := entry.Encode(u); err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	seq.Content = append(seq.Content, &entry)
	return pkgconfig.SaveDocument(path, doc)
}

// RemoveUser deletes the named account from the file at path.
func RemoveUser(path, username string) error {
	doc, err := pkgconfig.LoadDocument(path)
	if err != nil {
		return err
	}
	seq := usersNode(doc, false)
	i := -1
	if seq != nil {
		i = userIndex(seq, username)
	}
	if i < 0 {
		return fmt.Errorf("%w: user %q", apperr.ErrNotFound, username)
	}
	seq.Content = append(seq.Content[:i], seq.Content[i+1:]...)
	return pkgconfig.SaveDocument(path, doc)
}

// usersNode finds the auth.users sequence, creating the missing levels when
// create is set. It returns nil when the node is absent or has the wrong
// shape.
func usersNode(doc *yaml.Node, create bool) *yaml.Node {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	authNode := mappingChild(doc.Content[0], "auth", yaml.MappingNode, create)
	if authNode == nil {
		return nil
	}
	return mappingChild(authNode, "users", yaml.SequenceNode, create)
}

func mappingChild(m *yaml.Node, key string, kind yaml.Kind, create bool) *yaml.Node {
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value != key {
			continue
		}
		v := m.Content[i+1]
		if v.Kind == kind {
			return v
		}
		// "users:" with no value parses as null.
		if create && v.Tag == "!!null" {
			*v = yaml.Node{Kind: kind}
			return v
		}
		return nil
	}
	if !create {
		return nil
	}
	child := &yaml.Node{Kind: kind}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		child,
	)
	return child
}

func userIndex(seq *yaml.Node, username string) int {
	for i, n := range seq.Content {
		var u UserConfig
		if err := n.Decode(&u); err == nil && u.Username == username {
			return i
		}
	}
	return -1
}
