package service

// ConstantTimeEqual exposes constantTimeEqual to the external test package.
var ConstantTimeEqual = constantTimeEqual
