// Package ppoprf implementa un PRF parcialmente oblivious y perforable sobre el
// grupo Ristretto255.
//
// El servidor guarda un escalar maestro k y un PRF perforable en árbol GGM cuyas
// hojas derivan un escalar t_e por epoch. Un punto cegado P del cliente se evalúa
// en el epoch e como
//
//	F(P, e) = (k + t_e)^-1 · P
//
// Perforar el epoch e elimina todo nodo del árbol que llegue a su hoja, así que
// t_e (y con él F(·, e)) no se puede volver a calcular. La clave pública se
// compromete a k·G y a cada t_e·G al construirse; con eso los clientes verifican
// pruebas DLEQ de los epochs que el servidor todavía puede evaluar.
//
// El paquete incluye también el lado cliente del protocolo (Blind, Unblind y
// Finalize) que usan la CLI y los tests.
package ppoprf
