// Package oprf contiene el ciclo de vida de epochs del servicio de randomness.
//
// State es el único recurso mutable compartido: los handlers toman acceso
// compartido con Read y el Rotator es el único escritor vía Write. Perforar el
// epoch actual y avanzar al siguiente ocurre dentro de un mismo Write, así que
// ningún lector ve una cosa sin la otra.
//
// En el camino del request los fallos son errores comunes (el caller responde
// 400). Los mismos fallos dentro del Rotator vuelven como *FatalError y
// envenenan el guard: el supervisor deja de servir porque el estado de
// epoch/clave ya no es confiable.
package oprf
