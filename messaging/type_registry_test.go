package messaging

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeName(t *testing.T) {
	assert.Equal(t, "orderPlaced", TypeName(reflect.TypeOf(&orderPlaced{})))
	assert.Equal(t, "orderPlaced", TypeName(reflect.TypeOf(orderPlaced{})))
	assert.Equal(t, "int", TypeName(reflect.TypeOf(0)))
	assert.Empty(t, TypeName(reflect.TypeOf(struct{}{})))
	assert.Empty(t, TypeName(nil))
}

func TestQualifiedTypeName(t *testing.T) {
	assert.Equal(t, "github.com/glimte/rendezvous-go/messaging.orderPlaced", QualifiedTypeName(reflect.TypeOf(&orderPlaced{})))
	assert.Equal(t, "string", QualifiedTypeName(reflect.TypeOf("")))
	assert.Empty(t, QualifiedTypeName(reflect.TypeOf([]int{})))
}
