// Package navigation provides the in-process Navigator implementation.
// Rendering lives outside this core; this navigator records the stack root
// and logs transitions so the rest of the system has a concrete collaborator.
package navigation

import (
	"sync"

	"github.com/kestrelpay/kestrel/internal/common"
	"github.com/kestrelpay/kestrel/internal/interfaces"
)

// StackNavigator is a logging Navigator that tracks the current stack.
type StackNavigator struct {
	mu     sync.Mutex
	root   interfaces.Screen
	stack  []interfaces.Screen
	logger *common.Logger
}

// New creates a navigator rooted at the given screen.
func New(logger *common.Logger, root interfaces.Screen) *StackNavigator {
	return &StackNavigator{root: root, logger: logger}
}

// SetStackRoot replaces the whole stack with the named screen.
func (n *StackNavigator) SetStackRoot(screen interfaces.Screen) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.root == screen && len(n.stack) == 0 {
		return
	}
	n.root = screen
	n.stack = nil
	n.logger.Info().Str("screen", string(screen)).Msg("Stack root set")
}

// Push pushes a screen onto the stack.
func (n *StackNavigator) Push(screen interfaces.Screen, currency string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stack = append(n.stack, screen)
	n.logger.Info().Str("screen", string(screen)).Str("currency", currency).Msg("Screen pushed")
}

// Current returns the screen on top of the stack, or the root.
func (n *StackNavigator) Current() interfaces.Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.stack) > 0 {
		return n.stack[len(n.stack)-1]
	}
	return n.root
}

// Ensure StackNavigator implements Navigator
var _ interfaces.Navigator = (*StackNavigator)(nil)
