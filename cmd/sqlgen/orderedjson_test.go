package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/fathiraz/sqlgen/expr"
)

type OrderedJSONSuite struct {
	suite.Suite
}

func TestOrderedJSONSuite(t *testing.T) {
	suite.Run(t, new(OrderedJSONSuite))
}

func (s *OrderedJSONSuite) TestObjectKeysPreserveSourceOrder() {
	v, err := decodeOrdered(strings.NewReader(`{"age":{"$gte":18,"$lt":65},"name":"Ada"}`))
	s.Require().NoError(err)

	m, ok := v.(expr.M)
	s.Require().True(ok)
	s.Equal([]string{"age", "name"}, m.Keys())

	age, _ := m.Get("age")
	ageM, ok := age.(expr.M)
	s.Require().True(ok)
	s.Equal([]string{"$gte", "$lt"}, ageM.Keys())
}

func (s *OrderedJSONSuite) TestIntegersDecodeAsInt64() {
	v, err := decodeOrdered(strings.NewReader(`{"age":18}`))
	s.Require().NoError(err)
	m := v.(expr.M)
	val, _ := m.Get("age")
	s.Equal(int64(18), val)
}

func (s *OrderedJSONSuite) TestFloatsDecodeAsFloat64() {
	v, err := decodeOrdered(strings.NewReader(`{"ratio":1.5}`))
	s.Require().NoError(err)
	m := v.(expr.M)
	val, _ := m.Get("ratio")
	s.Equal(1.5, val)
}

func (s *OrderedJSONSuite) TestArraysPreserveElementOrder() {
	v, err := decodeOrdered(strings.NewReader(`[3,1,2]`))
	s.Require().NoError(err)
	arr, ok := v.([]interface{})
	s.Require().True(ok)
	s.Equal([]interface{}{int64(3), int64(1), int64(2)}, arr)
}

func (s *OrderedJSONSuite) TestNestedObjectInArray() {
	v, err := decodeOrdered(strings.NewReader(`{"$or":[{"a":1},{"b":2}]}`))
	s.Require().NoError(err)
	m := v.(expr.M)
	orVal, _ := m.Get("$or")
	arr := orVal.([]interface{})
	s.Len(arr, 2)
	first := arr[0].(expr.M)
	s.Equal([]string{"a"}, first.Keys())
}

func (s *OrderedJSONSuite) TestEmptyInputYieldsNil() {
	v, err := decodeOrdered(strings.NewReader(``))
	s.NoError(err)
	s.Nil(v)
}

func (s *OrderedJSONSuite) TestScalarTopLevelValue() {
	v, err := decodeOrdered(strings.NewReader(`"deleted_at IS NULL"`))
	s.NoError(err)
	s.Equal("deleted_at IS NULL", v)
}
